package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"animeimporter/internal/app"
	"animeimporter/internal/importer"
	"animeimporter/internal/logging"
	"animeimporter/internal/services"
)

const bodyLimit = "1M"

// Server exposes the importer services over HTTP.
type Server struct {
	app     *app.App
	logger  *slog.Logger
	version string
	echo    *echo.Echo
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /api/status.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(a *app.App, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		app:     a,
		logger:  logging.NewComponentLogger(logger, "api"),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(services.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(otelecho.Middleware(a.Config.Tracing.ServiceName))
	e.Use(s.requestLogger())
	e.Use(middleware.BodyLimit(bodyLimit))

	group := e.Group("/api")
	if token := a.Config.Paths.APIToken; token != "" {
		group.Use(bearerAuth(token))
	}
	s.registerRoutes(group)

	s.echo = e
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Echo exposes the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes(g *echo.Group) {
	g.GET("/status", s.handleStatus)
	g.GET("/records", s.handleListRecords)
	g.POST("/records", s.handleCreateRecord)
	g.GET("/records/:id", s.handleGetRecord)
	g.PUT("/records/:id", s.handleSaveRecord)
	g.DELETE("/records/:id", s.handleDeleteRecord)
	g.POST("/records/:id/sync", s.handleSyncRecord)
	g.GET("/search", s.handleSearch)
	g.GET("/settings", s.handleGetSettings)
	g.PUT("/settings", s.handlePutSettings)
	g.GET("/genres", s.handleGenres)
	g.GET("/assets/:id", s.handleAsset)
}

// bearerAuth requires "Authorization: Bearer <token>" on every request.
func bearerAuth(token string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(error, echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		},
	})
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []logging.Attr{
				logging.String("method", v.Method),
				logging.String("uri", v.URI),
				logging.Int("status", v.Status),
				logging.Duration("latency", v.Latency),
				logging.String(logging.FieldCorrelationID, v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, logging.Error(v.Error))
			}
			level := slog.LevelDebug
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, code, message := classifyError(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		s.logger.Error("request failed", logging.Error(err), logging.String("uri", c.Request().RequestURI))
	}
	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Error: message, Code: code})
	}
	if writeErr != nil {
		s.logger.Debug("write error response", logging.Error(writeErr))
	}
}

func classifyError(err error) (int, string, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, httpCode(he.Code), fmt.Sprint(he.Message)
	}

	switch {
	case errors.Is(err, importer.ErrNoQuery):
		return http.StatusBadRequest, "no_query", err.Error()
	case errors.Is(err, importer.ErrProviderUnreachable):
		return http.StatusBadGateway, "provider_unreachable", err.Error()
	case errors.Is(err, importer.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response", err.Error()
	}

	kind := services.Kind(err)
	switch kind {
	case "validation":
		return http.StatusBadRequest, kind, err.Error()
	case "not_found":
		return http.StatusNotFound, kind, err.Error()
	case "conflict":
		return http.StatusConflict, kind, err.Error()
	case "external":
		return http.StatusBadGateway, kind, err.Error()
	default:
		return http.StatusInternalServerError, kind, "internal server error"
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	default:
		return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
	}
}
