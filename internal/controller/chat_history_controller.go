package controller

import (
	"ai-chat-router-be/internal/pkg/serverutils"
	"ai-chat-router-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatHistoryController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type chatHistoryController struct {
	service   service.IChatHistoryService
	jwtSecret string
}

func NewChatHistoryController(service service.IChatHistoryService, jwtSecret string) IChatHistoryController {
	return &chatHistoryController{service: service, jwtSecret: jwtSecret}
}

func (c *chatHistoryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats/v1")
	h.Use(serverutils.AuthMiddleware(c.jwtSecret))
	h.Get("", c.GetAll)
	h.Get(":id/messages", c.GetMessages)
	h.Delete(":id", c.Delete)
}

func (c *chatHistoryController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetConversations(ctx.UserContext(), serverutils.UserIDFrom(ctx), serverutils.AuthKeyFrom(ctx))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all conversations", res))
}

func (c *chatHistoryController) GetMessages(ctx *fiber.Ctx) error {
	res, err := c.service.GetMessages(ctx.UserContext(), serverutils.UserIDFrom(ctx), ctx.Params("id"), serverutils.AuthKeyFrom(ctx))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *chatHistoryController) Delete(ctx *fiber.Ctx) error {
	res, err := c.service.DeleteConversation(ctx.UserContext(), serverutils.UserIDFrom(ctx), ctx.Params("id"), serverutils.AuthKeyFrom(ctx))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete conversation", res))
}
