package controller

import (
	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	IngestStats(ctx *fiber.Ctx) error
}

// IngestStatsSource reports what the ingest consumer has seen since start.
type IngestStatsSource interface {
	Stats() service.IngestStats
}

type healthController struct {
	version     string
	environment string
	ingest      IngestStatsSource
}

// NewHealthController takes a nil ingest source when no consumer runs.
func NewHealthController(version, environment string, ingest IngestStatsSource) IHealthController {
	return &healthController{version: version, environment: environment, ingest: ingest}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/health/ingest", c.IngestStats)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Status:      "ok",
		Version:     c.version,
		Environment: c.environment,
	})
}

func (c *healthController) IngestStats(ctx *fiber.Ctx) error {
	var stats service.IngestStats
	if c.ingest != nil {
		stats = c.ingest.Stats()
	}
	return ctx.JSON(dto.IngestStatsResponse{
		Ingestions: stats.Ingestions,
		Chunks:     stats.Chunks,
	})
}
