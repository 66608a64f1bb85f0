// Package httpapi serves the website lead intake and the admin endpoints.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/broadcast"
	"github.com/m3rciful/boxingcrm/crm/domain"
)

// LeadService stores website leads.
type LeadService interface {
	Submit(ctx context.Context, l domain.Lead) (domain.Lead, bool, error)
}

// Broadcaster fans a message out to an audience.
type Broadcaster interface {
	Broadcast(ctx context.Context, audience domain.Audience, text string) (broadcast.Result, error)
}

// Options configure the server.
type Options struct {
	Listen         string
	AdminKey       string
	AllowedOrigins []string
	Version        string
}

// Server is the HTTP API.
type Server struct {
	opts      Options
	leads     LeadService
	broadcast Broadcaster
	validate  *validator.Validate
	router    chi.Router
}

// New builds the router.
func New(opts Options, leads LeadService, b Broadcaster) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{opts: opts, leads: leads, broadcast: b, validate: newValidator()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", adminKeyHeader},
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", s.health)
	r.Route("/api", func(api chi.Router) {
		api.Post("/leads", s.createLead)
		api.Post("/leads-form", s.createLeadForm)
	})
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(s.requireAdmin)
		admin.Post("/broadcast", s.runBroadcast)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.HTTP.Handler(), slog.LevelWarn),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.HTTP.Info("http listening", slog.String("event", "http.listen"), slog.String("addr", s.opts.Listen))
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
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.HTTP.Info("http stopped", slog.String("event", "http.stop"))
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"ok": true, "version": s.opts.Version})
}

// requestLog carries the chi request id into the log context and writes
// one line per request.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRID(r.Context(), middleware.GetReqID(r.Context()))
		ctx = logger.WithLogger(ctx, logger.HTTP)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Info(ctx, "http", "http.request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", ww.Status()),
				slog.Int("size", ww.BytesWritten()),
				slog.Duration("duration", logger.Took(start)),
			)
		}()
		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func fail(w http.ResponseWriter, r *http.Request, status int, msg string, fields ...string) {
	render.Status(r, status)
	render.JSON(w, r, errorBody{Error: msg, Fields: fields})
}

// invalidFields lists the json names of fields that failed validation.
func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field())
	}
	return out
}
