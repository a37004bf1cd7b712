package middleware

import (
	"net/http"
	"slices"

	"foodorder-be/internal/auth"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/utils"

	"go.uber.org/zap"
)

// RequireRole rejects the request before any handler work unless it carries a
// valid token whose role is one of roles.
func RequireRole(secret string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromCtx(r.Context())

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				utils.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := auth.ParseToken(secret, tokenStr)
			if err != nil {
				log.Info("rejected token", zap.Error(err))
				utils.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				log.Info("role not allowed",
					zap.String("role", claims.Role),
					zap.Strings("allowed", roles),
				)
				utils.WriteMessage(w, http.StatusForbidden, "Forbidden")
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.ID, claims.FirstName, claims.Role)
			ctx = logger.WithSubject(ctx, claims.Role, claims.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
