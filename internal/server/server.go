package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/juicecola/construct-agent/internal/domain"
	"github.com/juicecola/construct-agent/internal/fulfillment"
	"github.com/juicecola/construct-agent/internal/intent"
	"github.com/juicecola/construct-agent/internal/store"
)

// Config for the HTTP handler. All collaborators are injected; the server
// never constructs its own clients.
type Config struct {
	Stores     *store.Stores
	Intent     intent.Querier
	Dispatcher *fulfillment.Dispatcher
}

// New returns an HTTP handler exposing the gateway webhooks and the dashboard
// read APIs. Webhook routes speak the telephony gateway's form/plain-text
// protocol and are registered raw on the router; the JSON read APIs go
// through huma so they appear in the OpenAPI document.
func New(cfg Config) (http.Handler, error) {
	if cfg.Stores == nil || cfg.Intent == nil || cfg.Dispatcher == nil {
		return nil, fmt.Errorf("server: stores, intent querier, and dispatcher are required")
	}
	huma.DefaultArrayNullable = false

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("ConstructAgent API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)

	registerDocs(router)
	registerHealth(api)
	registerLogs(api, cfg.Stores)

	router.Post("/webhooks/incoming_sms", handleIncomingSMS(cfg.Intent))
	router.Post("/webhooks/incoming_ussd", handleIncomingUSSD(cfg.Intent))
	router.Post("/webhooks/fulfillment", handleFulfillment(cfg.Dispatcher))

	return router, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerLogs(api huma.API, stores *store.Stores) {
	huma.Register(api, huma.Operation{
		OperationID: "list-hazards",
		Method:      http.MethodGet,
		Path:        "/api/hazards",
		Summary:     "Hazard log",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.HazardRecord `json:"body"`
	}, error) {
		return &struct {
			Body []domain.HazardRecord `json:"body"`
		}{Body: stores.Hazards.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-attendance",
		Method:      http.MethodGet,
		Path:        "/api/attendance",
		Summary:     "Attendance log",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.AttendanceRecord `json:"body"`
	}, error) {
		return &struct {
			Body []domain.AttendanceRecord `json:"body"`
		}{Body: stores.Attendance.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-deliveries",
		Method:      http.MethodGet,
		Path:        "/api/deliveries",
		Summary:     "Delivery log",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.DeliveryRecord `json:"body"`
	}, error) {
		return &struct {
			Body []domain.DeliveryRecord `json:"body"`
		}{Body: stores.Deliveries.List()}, nil
	})
}

func registerDocs(r chi.Router) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML)
	})
}

const swaggerHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>ConstructAgent API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '/openapi.json',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`
