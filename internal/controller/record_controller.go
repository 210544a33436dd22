package controller

import (
	"strconv"

	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/pkg/serverutils"
	"vehicle-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const totalCountHeader = "X-Total-Count"

type IRecordController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type recordController struct {
	service service.IRecordService
}

func NewRecordController(service service.IRecordService) IRecordController {
	return &recordController{service: service}
}

func (c *recordController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/blogs")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)

	// Legacy singular paths; /blog/list must be registered before /blog/:id.
	legacy := r.Group("/blog")
	legacy.Post("", c.Create)
	legacy.Get("/list", c.List)
	legacy.Get(":id", c.Show)
	legacy.Put(":id", c.Update)
	legacy.Delete(":id", c.Delete)
}

func parseID(ctx *fiber.Ctx) (uint, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil || id < 0 {
		return 0, apperror.Unprocessable("id must be a non-negative integer")
	}
	return uint(id), nil
}

func (c *recordController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateRecordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Unprocessable("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *recordController) List(ctx *fiber.Ctx) error {
	var req dto.ListRecordRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Unprocessable("limit and offset must be integers")
	}

	res, err := c.service.List(ctx.Context(), &req)
	if err != nil {
		return err
	}
	total, err := c.service.Count(ctx.Context(), &req)
	if err != nil {
		return err
	}
	ctx.Set(totalCountHeader, strconv.FormatInt(total, 10))

	return ctx.JSON(res)
}

func (c *recordController) Show(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *recordController) Update(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateRecordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Unprocessable("Invalid request body")
	}
	req.Id = id

	res, err := c.service.Update(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *recordController) Delete(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Delete(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
