// Package devserver serves the remote task store REST contract over any
// tasksource.Store, for local development and end-to-end tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/tasksource"
	"github.com/Jayphen/taskboard/internal/types"
)

// DefaultListen is the default listen address.
const DefaultListen = "127.0.0.1:8787"

// Options configures the server.
type Options struct {
	// Token, when set, is required as a Bearer token on every request.
	Token string
	Log   *logging.Logger
}

// Server wraps an Echo instance bound to a store.
type Server struct {
	e     *echo.Echo
	store tasksource.Store
	log   *logging.Logger
}

// New creates a server with routes registered.
func New(store tasksource.Store, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	if opts.Token != "" {
		e.Use(bearerAuth(opts.Token))
	}

	Register(e, store, log)
	return &Server{e: e, store: store, log: log}
}

// Handler returns the HTTP handler, for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("dev server listening")
		errCh <- s.e.Start(addr)
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
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		s.log.Info("dev server stopped")
		return nil
	}
}

// Register wires the task routes on e.
func Register(e *echo.Echo, store tasksource.Store, log *logging.Logger) {
	h := &handlers{store: store, log: log}
	e.GET("/api/tasks", h.list)
	e.POST("/api/tasks", h.create)
	e.GET("/api/tasks/:id", h.get)
	e.PATCH("/api/tasks/:id", h.update)
	e.DELETE("/api/tasks/:id", h.delete)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

type tasksResponse struct {
	Tasks []types.Task `json:"tasks"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type handlers struct {
	store tasksource.Store
	log   *logging.Logger
}

func (h *handlers) list(c echo.Context) error {
	tasks, err := h.store.ListTasks(c.Request().Context(), c.QueryParam("workspaceId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
}

func (h *handlers) get(c echo.Context) error {
	t, err := h.store.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) create(c echo.Context) error {
	var draft types.Task
	if err := decodeBody(c, &draft); err != nil {
		return h.fail(c, err)
	}
	if draft.Status == "" {
		draft.Status = types.StatusToDo
	}
	if draft.Priority == "" {
		draft.Priority = types.PriorityMedium
	}
	if err := types.Validate(draft); err != nil {
		return h.fail(c, err)
	}

	t, err := h.store.CreateTask(c.Request().Context(), draft)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *handlers) update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var u types.TaskUpdate
	if err := decodeBody(c, &u); err != nil {
		return h.fail(c, err)
	}

	current, err := h.store.GetTask(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if err := types.ValidateUpdate(current, u); err != nil {
		return h.fail(c, err)
	}

	t, err := h.store.UpdateTask(ctx, id, u)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) delete(c echo.Context) error {
	if err := h.store.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// badRequest marks a body that could not be decoded.
type badRequest struct{ err error }

func (b badRequest) Error() string { return "invalid body: " + b.err.Error() }

const maxBodySize = 1 << 20

func decodeBody(c echo.Context, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return badRequest{err: err}
	}
	return nil
}

// fail maps store and validation errors onto status codes.
func (h *handlers) fail(c echo.Context, err error) error {
	var (
		ve *types.ValidationError
		br badRequest
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &br):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: br.Error()})
	case errors.Is(err, tasksource.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "task not found"})
	case errors.Is(err, tasksource.ErrReadOnly):
		return c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: err.Error()})
	}
	h.log.WithError(err).Error("store request failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func requestLogger(log *logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Event(logging.DebugLevel)
			if v.Status >= http.StatusInternalServerError {
				ev = log.Event(logging.ErrorLevel)
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func bearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/healthz" {
				return next(c)
			}
			got := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "))
			if got != token {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			}
			return next(c)
		}
	}
}
