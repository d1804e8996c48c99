package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trials-map/internal/logging"
	"trials-map/internal/metrics"
)

// HandlerFunc is the handler signature accepted by GET and POST.
type HandlerFunc = http.HandlerFunc

// Router is a chi mux with request ids, real client IPs, panic recovery and
// a structured access log installed.
type Router struct {
	mux *chi.Mux
}

func New() *Router {
	r := &Router{mux: chi.NewRouter()}
	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(accessLog)
	r.mux.Use(middleware.Recoverer)

	r.mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	r.mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// Use appends middleware. It must be called before any route is registered.
func (r *Router) Use(mw ...func(http.Handler) http.Handler) { r.mux.Use(mw...) }

func (r *Router) GET(path string, handler HandlerFunc)  { r.mux.Get(path, handler) }
func (r *Router) POST(path string, handler HandlerFunc) { r.mux.Post(path, handler) }

// Handle mounts any http.Handler for all methods.
func (r *Router) Handle(pattern string, h http.Handler) { r.mux.Handle(pattern, h) }

// Handler exposes the router as an http.Handler.
func (r *Router) Handler() http.Handler { return r.mux }

// ServerOptions tune the HTTP server.
type ServerOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Start serves on addr until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func (r *Router) Start(ctx context.Context, addr string, o ServerOptions) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.mux,
		ReadTimeout:       o.ReadTimeout,
		ReadHeaderTimeout: o.ReadTimeout,
		WriteTimeout:      o.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.Info().Msg("server stopped")
	return nil
}

// accessLog logs one line per request and records request metrics.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordAPIRequest(req.Method, route, status, duration)

		event := logging.Info()
		switch {
		case status >= 500:
			event = logging.Error()
		case status >= 400:
			event = logging.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(req.Context())).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", duration).
			Str("remote", req.RemoteAddr).
			Msg("request")
	})
}
