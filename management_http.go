package cacheservice

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// ManagementHTTPOption configures the management HTTP server.
type ManagementHTTPOption func(*ManagementHTTPServer)

// ManagementHTTPServer exposes the caches of a Registry over HTTP: listing, details, clearing and
// changing the default max age.
type ManagementHTTPServer struct {
	addr         string
	app          *fiber.App
	readTimeout  time.Duration
	writeTimeout time.Duration
	authFunc     func(fiber.Ctx) error
	ln           net.Listener
	started      bool
	logger       zerolog.Logger
	gatherer     prometheus.Gatherer
}

// WithMgmtAuth sets an auth function (return error to block).
func WithMgmtAuth(fn func(fiber.Ctx) error) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.authFunc = fn }
}

// WithMgmtReadTimeout sets read timeout.
func WithMgmtReadTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.readTimeout = d }
}

// WithMgmtWriteTimeout sets write timeout.
func WithMgmtWriteTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.writeTimeout = d }
}

// WithMgmtMetrics serves the metrics of gatherer at GET /metrics in the Prometheus text format.
func WithMgmtMetrics(gatherer prometheus.Gatherer) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.gatherer = gatherer }
}

// WithMgmtLogger sets the logger for server errors.
func WithMgmtLogger(logger zerolog.Logger) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.logger = logger }
}

const (
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// cacheInfo is the JSON view of one binding.
type cacheInfo struct {
	Token           string                `json:"token"`
	Name            string                `json:"name"`
	State           string                `json:"state"`
	MaxAgeSeconds   int64                 `json:"maxAgeSeconds"`
	IdleTimeSeconds int64                 `json:"idleTimeSeconds"`
	Eternal         bool                  `json:"eternal"`
	Engine          *engine.Configuration `json:"engine,omitempty"`
}

// NewManagementHTTPServer builds an HTTP server holder (lazy start).
func NewManagementHTTPServer(addr string, opts ...ManagementHTTPOption) *ManagementHTTPServer {
	srv := &ManagementHTTPServer{
		addr:         addr,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
		ErrorHandler: errorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return srv
}

// Start mounts the routes for registry and starts listening (idempotent).
func (s *ManagementHTTPServer) Start(ctx context.Context, registry *Registry) error {
	if s.started {
		return nil
	}

	if registry == nil {
		return ewrap.Wrap(sentinel.ErrInvalidArgument, "nil registry")
	}

	s.mountRoutes(registry)

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "mgmt listen")
	}

	s.ln = ln

	go func() {
		serveErr := s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
		if serveErr != nil {
			s.logger.Error().Err(serveErr).Msg("management server stopped")
		}
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for ephemeral port). Empty if not started yet.
func (s *ManagementHTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *ManagementHTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return sentinel.ErrMgmtHTTPShutdownTimeout
	case err := <-ch:
		return err
	}
}

func (s *ManagementHTTPServer) mountRoutes(registry *Registry) {
	useAuth := s.wrapAuth

	s.app.Get("/health", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))

	if s.gatherer != nil {
		s.app.Get("/metrics", useAuth(adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))))
	}

	s.app.Get("/caches", useAuth(func(fiberCtx fiber.Ctx) error {
		tokens := registry.Tokens()

		infos := make([]cacheInfo, 0, len(tokens))
		for _, token := range tokens {
			svc, err := registry.Named(token)
			if err != nil {
				continue
			}

			infos = append(infos, describe(token, svc))
		}

		return fiberCtx.JSON(infos)
	}))
	s.app.Get("/caches/:token", useAuth(func(fiberCtx fiber.Ctx) error {
		token := fiberCtx.Params("token")

		svc, err := registry.Named(token)
		if err != nil {
			return err
		}

		return fiberCtx.JSON(describe(token, svc))
	}))
	s.app.Post("/caches/:token/clear", useAuth(func(fiberCtx fiber.Ctx) error {
		svc, err := registry.Named(fiberCtx.Params("token"))
		if err != nil {
			return err
		}

		err = svc.Clear(fiberCtx.Context())
		if err != nil {
			return err
		}

		return fiberCtx.SendStatus(fiber.StatusOK)
	}))
	s.app.Put("/caches/:token/max-age", useAuth(func(fiberCtx fiber.Ctx) error {
		token := fiberCtx.Params("token")

		svc, err := registry.Named(token)
		if err != nil {
			return err
		}

		seconds, err := strconv.ParseInt(fiberCtx.Query("seconds"), 10, 64)
		if err != nil {
			return ewrap.Wrapf(sentinel.ErrInvalidArgument, "seconds %q", fiberCtx.Query("seconds"))
		}

		maxAge, err := scale(seconds, time.Second)
		if err != nil {
			return err
		}

		err = svc.SetMaxAge(maxAge)
		if err != nil {
			return err
		}

		return fiberCtx.JSON(describe(token, svc))
	}))
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *ManagementHTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler { //nolint:ireturn
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

func describe(token string, svc Service) cacheInfo {
	exp := svc.DefaultExpiration()

	info := cacheInfo{
		Token:           token,
		Name:            svc.Name(),
		State:           svc.State().String(),
		MaxAgeSeconds:   exp.LifeTimeIn(time.Second),
		IdleTimeSeconds: exp.IdleTimeIn(time.Second),
		Eternal:         exp.IsEternal(),
	}

	if configured, ok := Innermost(svc).(interface{ Configuration() engine.Configuration }); ok {
		cfg := configured.Configuration()
		info.Engine = &cfg
	}

	return info
}

// errorHandler maps the error taxonomy onto status codes.
func errorHandler(fiberCtx fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case errors.Is(err, sentinel.ErrBindingNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, sentinel.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, sentinel.ErrIllegalState):
		status = fiber.StatusConflict
	}

	return fiberCtx.Status(status).JSON(fiber.Map{"error": err.Error()})
}
