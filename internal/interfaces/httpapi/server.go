package httpapi

import (
	"net/http"

	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	swaggerEnabled bool,
	corsAllowedOrigins []string,
	internalJobToken string,
	captureBodyMaxBytes int,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, swaggerEnabled)
	registerLiveRoutes(mux, handler)
	registerWebhookRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, internalJobToken)
	registerInternalSourceRoutes(mux, handler, internalJobToken)

	routes := CaptureRequestBody(captureBodyMaxBytes, recoverPanic(logger, mux))
	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, routes)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "http_path", r.URL.Path)
				writeInternalError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
