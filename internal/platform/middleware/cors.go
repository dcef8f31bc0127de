package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORS allows any origin to call the API. Only the methods the router serves are
// advertised, and the correlation headers are allowed so browsers can forward them.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			middleware.RequestIDHeader,
			"traceparent",
		},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Link"},
		MaxAge:         300,
	})
}
