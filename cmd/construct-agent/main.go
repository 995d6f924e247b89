package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	constructsdk "github.com/juicecola/construct-agent/sdk/go"

	"github.com/juicecola/construct-agent/internal/config"
	"github.com/juicecola/construct-agent/internal/fulfillment"
	"github.com/juicecola/construct-agent/internal/intent"
	"github.com/juicecola/construct-agent/internal/server"
	"github.com/juicecola/construct-agent/internal/sms"
	"github.com/juicecola/construct-agent/internal/store"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "construct-agent",
	Short: "ConstructAgent site reporting relay",
	Long: `ConstructAgent relays construction site reports from SMS and USSD to a
conversational intent engine and keeps the resulting logs.
- Workers dial a USSD code or text the site line to report hazards,
  check in or out, and log deliveries.
- The intent engine drives the conversation and calls back into the
  fulfillment webhook with a tag naming the action to take.
- Hazard and delivery reports raise an alert SMS to the site manager.
- The dashboard reads the hazard, attendance, and delivery logs over
  the JSON API.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONSTRUCT_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(smsCmd())
	rootCmd.AddCommand(versionCmd())
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook and API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}

			stores := store.New()
			querier := intent.New(cmd.Context(), intent.Config{
				ProjectID:       cfg.Dialogflow.ProjectID,
				Location:        cfg.Dialogflow.Location,
				AgentID:         cfg.Dialogflow.AgentID,
				LanguageCode:    cfg.Dialogflow.LanguageCode,
				CredentialsFile: cfg.Dialogflow.CredentialsFile,
			})
			sender := sms.New(cfg.Telephony.Username, cfg.Telephony.APIKey, cfg.Telephony.SenderID)
			dispatcher := fulfillment.NewDispatcher(stores, sender, cfg.AlertPhone)

			handler, err := server.New(server.Config{
				Stores:     stores,
				Intent:     querier,
				Dispatcher: dispatcher,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving ConstructAgent on http://%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0:5000", "listen address")
	return cmd
}

func logsCmd() *cobra.Command {
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Read the site logs from a running server",
	}
	logs.PersistentFlags().String("server", "http://127.0.0.1:5000", "server base URL")
	_ = viper.BindPFlag("server", logs.PersistentFlags().Lookup("server"))
	logs.AddCommand(logsHazardsCmd())
	logs.AddCommand(logsAttendanceCmd())
	logs.AddCommand(logsDeliveriesCmd())
	return logs
}

func logsHazardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hazards",
		Short: "List hazard reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := constructsdk.New(viper.GetString("server"))
			items, err := client.Hazards(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Timestamp", "Location", "Description", "Reporter"})
			for _, h := range items {
				tw.AppendRow(table.Row{h.Timestamp, h.Location, h.Description, h.Reporter})
			}
			tw.Render()
			return nil
		},
	}
}

func logsAttendanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attendance",
		Short: "List attendance records",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := constructsdk.New(viper.GetString("server"))
			items, err := client.Attendance(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Timestamp", "Worker", "Action"})
			for _, a := range items {
				tw.AppendRow(table.Row{a.Timestamp, a.WorkerID, a.Action})
			}
			tw.Render()
			return nil
		},
	}
}

func logsDeliveriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deliveries",
		Short: "List delivery records",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := constructsdk.New(viper.GetString("server"))
			items, err := client.Deliveries(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Timestamp", "Order", "Location"})
			for _, d := range items {
				tw.AppendRow(table.Row{d.Timestamp, d.OrderID, d.Location})
			}
			tw.Render()
			return nil
		},
	}
}

func smsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sms",
		Short: "Telephony utilities",
	}
	cmd.AddCommand(smsTestCmd())
	return cmd
}

func smsTestCmd() *cobra.Command {
	var to, message string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test SMS with the configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			if to == "" {
				to = cfg.AlertPhone
			}
			if to == "" {
				return fmt.Errorf("--to required (or set ALERT_PHONE_NUMBER)")
			}
			sender := sms.New(cfg.Telephony.Username, cfg.Telephony.APIKey, cfg.Telephony.SenderID)
			if err := sender.Send(cmd.Context(), []string{to}, message); err != nil {
				return err
			}
			fmt.Printf("Sent to %s\n", to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient phone number")
	cmd.Flags().StringVar(&message, "message", "ConstructAgent test message", "message body")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("construct-agent", version)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
