package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerLiveRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/live/fixtures", handler.ListLiveFixtures)
	mux.HandleFunc("GET /v1/live/odds/{fixtureID}", handler.GetLiveOdds)
}

func registerWebhookRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/webhooks/whatsapp", handler.VerifyWhatsAppWebhook)
	mux.HandleFunc("POST /v1/webhooks/whatsapp", handler.ReceiveWhatsAppWebhook)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/reconcile", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReconcileJob)))
	mux.Handle("POST /v1/internal/jobs/schedule-due", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunScheduleDueJob)))
	mux.Handle("POST /v1/internal/jobs/run-due", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunDueJob)))
	mux.Handle("POST /v1/internal/jobs/check-stalled", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunCheckStalledJob)))
	mux.Handle("POST /v1/internal/jobs/bootstrap", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBootstrapJob)))
}

func registerInternalSourceRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("GET /v1/internal/sources", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListSources)))
	mux.Handle("POST /v1/internal/sources/{sourceID}/enable", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.EnableSource)))
	mux.Handle("POST /v1/internal/sources/{sourceID}/disable", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.DisableSource)))
	mux.Handle("GET /v1/internal/sources/{sourceID}/dispatches", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListSourceDispatches)))
	mux.Handle("POST /v1/internal/sources/{sourceID}/restart", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RestartSource)))
}
