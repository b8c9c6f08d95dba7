package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/database"
)

// ConnScope returns middleware that pins one pooled connection in the
// request context. Repositories downstream read it with
// database.GetConnScope; the connection is released when the request
// finishes.
func ConnScope(db *database.DB, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := db.Acquire(r.Context())
			if err != nil {
				logger.Error("failed to acquire database connection", zap.Error(err))
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			defer scope.Close()

			next.ServeHTTP(w, r.WithContext(database.SetConnScope(r.Context(), scope)))
		})
	}
}
