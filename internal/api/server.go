// Package api exposes loaded model artifacts over HTTP: the catalog of
// instances, per-instance manifest detail, and run completion status. It
// serves metadata only; executing models stays with the embedding process.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/loom/internal/logger"
	"github.com/samcharles93/loom/internal/rt"
	"github.com/samcharles93/loom/internal/version"
)

type Server struct {
	store   *ModelStore
	log     logger.Logger
	started time.Time
}

func NewServer(store *ModelStore, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{store: store, log: log, started: time.Now().UTC()}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/models", s.handleListModels)
	e.GET("/v1/models/:id", s.handleGetModel)
	e.GET("/v1/models/:id/status", s.handleModelStatus)
	e.DELETE("/v1/models/:id", s.handleDeleteModel)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.String(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Models:  len(s.store.List()),
	})
}

func (s *Server) handleListModels(c *echo.Context) error {
	records := s.store.List()
	data := make([]ModelSummary, 0, len(records))
	for _, rec := range records {
		data = append(data, summarize(rec))
	}
	return c.JSON(http.StatusOK, ModelList{Object: "list", Data: data})
}

func (s *Server) handleGetModel(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "no such model instance")
	}
	return c.JSON(http.StatusOK, ModelDetail{
		ModelSummary: summarize(rec),
		InSpec:       rec.Model.InSpec(),
		OutSpec:      rec.Model.OutSpec(),
		Manifest:     rec.Manifest,
	})
}

func (s *Server) handleModelStatus(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "no such model instance")
	}
	finished, err := rec.Model.IsFinished()
	switch {
	case errors.Is(err, rt.ErrEventNotInitialized):
		return c.JSON(http.StatusOK, StatusResponse{State: "idle"})
	case err != nil:
		s.log.Error("model run failed", "model_id", rec.ID, "error", err)
		return c.JSON(http.StatusOK, StatusResponse{State: "failed", Error: err.Error()})
	case finished:
		return c.JSON(http.StatusOK, StatusResponse{State: "finished"})
	default:
		return c.JSON(http.StatusOK, StatusResponse{State: "running"})
	}
}

func (s *Server) handleDeleteModel(c *echo.Context) error {
	id := c.Param("id")
	rec, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "no such model instance")
	}
	if err := rec.Model.Close(); err != nil {
		s.log.Warn("closing model", "model_id", id, "error", err)
	}
	s.store.Remove(id)
	return c.JSON(http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func summarize(rec *ModelRecord) ModelSummary {
	return ModelSummary{
		ID:        rec.ID,
		Object:    "model",
		Device:    rec.Model.Device().String(),
		Inputs:    rec.Model.NumInputs(),
		Outputs:   rec.Model.NumOutputs(),
		Constants: rec.Model.NumConstants(),
		Loaded:    rec.Model.Loaded(),
		LoadedAt:  rec.LoadedAt.Unix(),
	}
}
