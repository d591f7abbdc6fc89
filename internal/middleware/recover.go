package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/apierror"
)

func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic",
						slog.String("panic", fmt.Sprint(rec)),
						slog.String("correlation_id", GetCorrelationID(r.Context())),
						slog.String("stack", string(debug.Stack())),
					)
					apierror.Write(w, r, apierror.ErrInternalServer)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
