package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/table"
)

type ctxKey int

const viewKey ctxKey = iota

// withView stores the resolved view for handlers below /views/{viewID}.
func withView(ctx context.Context, v *table.View) context.Context {
	return context.WithValue(ctx, viewKey, v)
}

// viewFrom returns the view stored by viewCtx.
func viewFrom(ctx context.Context) *table.View {
	v, _ := ctx.Value(viewKey).(*table.View)
	return v
}

// viewCtx resolves {viewID} through the registry, which also extends the
// view's idle deadline. Unknown or expired ids end the request with VIEW001.
func (s *Server) viewCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := s.registry.Get(chi.URLParam(r, "viewID"))
		if err != nil {
			s.respondError(w, r, err, http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withView(r.Context(), v)))
	})
}

// requestLogger returns the request-scoped logger with client metadata and,
// when present, the view id.
func requestLogger(r *http.Request) *slog.Logger {
	args := []any{"ip", r.RemoteAddr}
	if v := viewFrom(r.Context()); v != nil {
		args = append(args, "view_id", v.ID())
	}
	return logging.WithFields(r.Context(), args...)
}
