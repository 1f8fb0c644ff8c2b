package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/bookbot/core/logger"
)

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// Router serves /metrics and /healthz. A failing check turns /healthz into 503.
func Router(checks map[string]HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(name + ": " + err.Error() + "\n"))
				return
			}
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// Serve runs the listener until ctx is done. An empty listen address disables it.
func Serve(ctx context.Context, listen string, checks map[string]HealthFunc) error {
	if listen == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              listen,
		Handler:           Router(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogEvent(ctx, logger.HTTP, slog.LevelInfo, "http.listen", slog.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.LogEvent(ctx, logger.HTTP, slog.LevelWarn, "http.shutdown", logger.Err(err))
			return err
		}
		return nil
	}
}
