// Package config resolves the relay's runtime configuration. Settings come
// from the environment first (the variable names the deployment has always
// used), optionally seeded from a construct-agent.yml next to the process.
// Missing settings disable the dependent capability instead of failing
// startup.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the optional config file read when no --config flag is set.
const DefaultPath = "construct-agent.yml"

// Config models construct-agent.yml plus the environment overrides.
type Config struct {
	Telephony struct {
		Username string `yaml:"username"`
		APIKey   string `yaml:"api_key"`
		SenderID string `yaml:"sender_id"`
	} `yaml:"telephony"`
	AlertPhone string `yaml:"alert_phone"`
	Dialogflow struct {
		ProjectID       string `yaml:"project_id"`
		Location        string `yaml:"location"`
		AgentID         string `yaml:"agent_id"`
		LanguageCode    string `yaml:"language_code"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"dialogflow"`
}

// envBindings maps config fields to the environment variables that set them.
var envBindings = []struct {
	env string
	set func(*Config, string)
}{
	{"AT_USERNAME", func(c *Config, v string) { c.Telephony.Username = v }},
	{"AT_API_KEY", func(c *Config, v string) { c.Telephony.APIKey = v }},
	{"AT_SENDER_ID", func(c *Config, v string) { c.Telephony.SenderID = v }},
	{"ALERT_PHONE_NUMBER", func(c *Config, v string) { c.AlertPhone = v }},
	{"DIALOGFLOW_PROJECT_ID", func(c *Config, v string) { c.Dialogflow.ProjectID = v }},
	{"DIALOGFLOW_LOCATION", func(c *Config, v string) { c.Dialogflow.Location = v }},
	{"DIALOGFLOW_AGENT_ID", func(c *Config, v string) { c.Dialogflow.AgentID = v }},
	{"DIALOGFLOW_LANGUAGE_CODE", func(c *Config, v string) { c.Dialogflow.LanguageCode = v }},
	{"GOOGLE_APPLICATION_CREDENTIALS", func(c *Config, v string) { c.Dialogflow.CredentialsFile = v }},
}

// Load reads the optional YAML file at path (skipped when absent), then
// applies environment overrides. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Dialogflow.LanguageCode = "en"

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config yaml %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	for _, b := range envBindings {
		if err := v.BindEnv(b.env); err != nil {
			return nil, err
		}
		if val := v.GetString(b.env); val != "" {
			b.set(cfg, val)
		}
	}
	if cfg.Dialogflow.LanguageCode == "" {
		cfg.Dialogflow.LanguageCode = "en"
	}
	return cfg, nil
}

// SMSConfigured reports whether outbound SMS can be authorized.
func (c *Config) SMSConfigured() bool {
	return c.Telephony.Username != "" && c.Telephony.APIKey != ""
}

// IntentConfigured reports whether the intent engine is fully addressed.
// The credentials file's existence is checked at client construction.
func (c *Config) IntentConfigured() bool {
	return c.Dialogflow.ProjectID != "" &&
		c.Dialogflow.Location != "" &&
		c.Dialogflow.AgentID != "" &&
		c.Dialogflow.CredentialsFile != ""
}
