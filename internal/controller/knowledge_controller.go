package controller

import (
	"bank-advisor-be/internal/dto"
	"bank-advisor-be/internal/pkg/serverutils"
	"bank-advisor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
	ListProducts(ctx *fiber.Ctx) error
	ListChunks(ctx *fiber.Ctx) error
	Reindex(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
	adminGuard       fiber.Handler
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService, adminGuard fiber.Handler) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
		adminGuard:       adminGuard,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Get("stats", c.Stats)
	h.Get("products", c.ListProducts)
	h.Get("chunks", c.ListChunks)

	// Reindexing rewrites the whole chunk index, admin only.
	h.Post("reindex", c.adminGuard, c.Reindex)
}

func (c *knowledgeController) Stats(ctx *fiber.Ctx) error {
	res, err := c.knowledgeService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *knowledgeController) ListProducts(ctx *fiber.Ctx) error {
	bankingType := ctx.Query("banking_type")

	res, err := c.knowledgeService.ListProducts(ctx.Context(), bankingType)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *knowledgeController) ListChunks(ctx *fiber.Ctx) error {
	filter := dto.ChunkFilterRequest{
		BankingType: ctx.Query("banking_type"),
		Tier:        ctx.Query("tier"),
		ProductType: ctx.Query("product_type"),
	}

	res, err := c.knowledgeService.ListChunks(ctx.Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *knowledgeController) Reindex(ctx *fiber.Ctx) error {
	var req dto.ReindexRequest
	if err := ctx.BodyParser(&req); err != nil {
		req = dto.ReindexRequest{}
	}

	res, err := c.knowledgeService.RequestReindex(ctx.Context(), req.Force)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Reindex queued", res))
}
