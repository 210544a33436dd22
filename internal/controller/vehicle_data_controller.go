package controller

import (
	"net/url"
	"strconv"

	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVehicleDataController interface {
	RegisterRoutes(r fiber.Router)
	GetDiagnosticCode(ctx *fiber.Ctx) error
	GetVehicleInfo(ctx *fiber.Ctx) error
}

type vehicleDataController struct {
	service service.IVehicleDataService
}

func NewVehicleDataController(service service.IVehicleDataService) IVehicleDataController {
	return &vehicleDataController{service: service}
}

func (c *vehicleDataController) RegisterRoutes(r fiber.Router) {
	r.Get("/diagnostic-codes/:code", c.GetDiagnosticCode)
	r.Get("/vehicle-info/:make/:model/:year", c.GetVehicleInfo)
}

func (c *vehicleDataController) GetDiagnosticCode(ctx *fiber.Ctx) error {
	res, err := c.service.GetDiagnosticCode(ctx.Context(), pathParam(ctx, "code"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *vehicleDataController) GetVehicleInfo(ctx *fiber.Ctx) error {
	year, err := strconv.Atoi(pathParam(ctx, "year"))
	if err != nil {
		return apperror.Unprocessable("year must be an integer")
	}

	res, err := c.service.GetVehicleInfo(ctx.Context(), pathParam(ctx, "make"), pathParam(ctx, "model"), year)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// pathParam returns a route param with percent-encoding removed, so
// "Silverado%201500" matches "Silverado 1500". Fiber leaves params raw.
func pathParam(ctx *fiber.Ctx, name string) string {
	raw := ctx.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
