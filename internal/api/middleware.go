package api

import (
	"context"
	"log/slog"
	"net/http"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
)

type userKey struct{}

func withUser(ctx context.Context, u ports.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFrom(ctx context.Context) (ports.User, bool) {
	u, ok := ctx.Value(userKey{}).(ports.User)
	return u, ok
}

// authenticate resolves the X-API-Key header into a user. The admin seeded
// at init-db carries the configured bootstrap key, so there is no separate
// key path for administration.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing api key"})
			return
		}

		user, found, err := s.users.GetByAPIKey(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !found || !user.Active {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid api key"})
			return
		}

		ctx := withUser(r.Context(), user)
		ctx = logging.WithAttrs(ctx, slog.String("user", user.Username))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r.Context())
		if !ok || user.Role != workflow.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
