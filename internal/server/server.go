package server

import (
	"context"
	"strings"

	"vehicle-rag-be/internal/bootstrap"
	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Vehicle Service RAG Assistant",
		BodyLimit:    cfg.App.UploadMaxBytes,
		ErrorHandler: serverutils.ErrorHandler(container.Logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(corsConfig(cfg.Cors)))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	if !cfg.IsProduction() {
		app.Use(fiberlogger.New())
	}

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// corsConfig turns the configured lists into fiber's comma separated form.
// Fiber refuses a wildcard origin together with credentials, so a wildcard wins.
func corsConfig(c config.CorsConfig) cors.Config {
	origins := strings.Join(c.AllowOrigins, ",")
	credentials := c.AllowCredentials
	if strings.Contains(origins, "*") {
		origins = "*"
		credentials = false
	}

	methods := strings.Join(c.AllowMethods, ",")
	if methods == "" || methods == "*" {
		methods = "GET,POST,PUT,PATCH,DELETE,OPTIONS,HEAD"
	}
	headers := strings.Join(c.AllowHeaders, ",")
	if headers == "*" {
		headers = ""
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: credentials,
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    "Content-Length, Content-Type, X-Total-Count",
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{
		"addr": "http://localhost:" + s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.HealthController.RegisterRoutes(app)
	c.RecordController.RegisterRoutes(app)
	c.VehicleDataController.RegisterRoutes(app)
	c.RagController.RegisterRoutes(app)
}
