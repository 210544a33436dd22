package controller

import (
	"fmt"
	"io"
	"strings"

	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/pkg/serverutils"
	"vehicle-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRagController interface {
	RegisterRoutes(r fiber.Router)
	UploadDocuments(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
}

type ragController struct {
	service service.IRagService
}

func NewRagController(service service.IRagService) IRagController {
	return &ragController{service: service}
}

func (c *ragController) RegisterRoutes(r fiber.Router) {
	r.Post("/upload-documents", c.UploadDocuments)
	r.Post("/query", c.Query)
}

func isPDF(filename, contentType string) bool {
	switch contentType {
	case "application/pdf", "application/octet-stream":
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

func (c *ragController) UploadDocuments(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return apperror.Validation("No files provided")
	}

	headers := form.File["files"]
	files := make([]dto.UploadedFile, 0, len(headers))
	names := make([]string, 0, len(headers))
	for _, fh := range headers {
		if !isPDF(fh.Filename, fh.Header.Get("Content-Type")) {
			return apperror.Validation(fmt.Sprintf("Unsupported file type for %s. Only PDF allowed.", fh.Filename))
		}

		f, err := fh.Open()
		if err != nil {
			return apperror.Internal("Failed to ingest documents", err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return apperror.Internal("Failed to ingest documents", err)
		}

		files = append(files, dto.UploadedFile{Name: fh.Filename, Content: content})
		names = append(names, fh.Filename)
	}

	count, err := c.service.Ingest(ctx.Context(), files)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.UploadDocumentsResponse{IngestedCount: count, Files: names})
}

func (c *ragController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Unprocessable("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Query(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
