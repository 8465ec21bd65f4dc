package controller

import (
	"context"
	"errors"

	"ai-chat-router-be/internal/dto"
	"ai-chat-router-be/internal/pkg/serverutils"
	"ai-chat-router-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Classify(ctx *fiber.Ctx) error
	GetEndpoint(ctx *fiber.Ctx) error
	ForceEndpoint(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
	ConversationTree(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	jwtSecret string
	limiter   *serverutils.RateLimiter
}

// NewChatController takes a nil limiter to leave /send unlimited
func NewChatController(service service.IChatService, jwtSecret string, limiter *serverutils.RateLimiter) IChatController {
	return &chatController{service: service, jwtSecret: jwtSecret, limiter: limiter}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("/classify", c.Classify)
	h.Get("/session/:id/endpoint", c.GetEndpoint)

	h.Use(serverutils.AuthMiddleware(c.jwtSecret))
	h.Post("/send", c.limiter.Middleware(), c.Send)
	h.Post("/request/:id/cancel", c.Cancel)
	h.Put("/session/:id/endpoint", c.ForceEndpoint)
	h.Delete("/session/:id", c.ResetSession)
	h.Get("/session/:id/tree", c.ConversationTree)
}

// handleError answers request errors itself and leaves upstream failures to the error middleware
func handleError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrMissingSession):
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	case errors.Is(err, service.ErrMissingCredential):
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.TypedErrorResponse(401, "auth", err.Error()))
	case errors.Is(err, service.ErrRequestNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	case errors.Is(err, service.ErrDuplicateRequest):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	default:
		return err
	}
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// fasthttp signals server shutdown, not client disconnect
	sendCtx, cancel := context.WithCancel(ctx.UserContext())
	defer cancel()
	stop := context.AfterFunc(ctx.Context(), cancel)
	defer stop()

	res, err := c.service.Send(sendCtx, serverutils.UserIDFrom(ctx), serverutils.AuthKeyFrom(ctx), &req)
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) Cancel(ctx *fiber.Ctx) error {
	err := c.service.Cancel(ctx.UserContext(), serverutils.UserIDFrom(ctx), ctx.Params("id"))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success cancel chat", nil))
}

func (c *chatController) Classify(ctx *fiber.Ctx) error {
	var req dto.ClassifyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Classify(ctx.UserContext(), serverutils.UserIDFrom(ctx), &req)
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success classify", res))
}

func (c *chatController) GetEndpoint(ctx *fiber.Ctx) error {
	res, err := c.service.GetEndpoint(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get endpoint", res))
}

func (c *chatController) ForceEndpoint(ctx *fiber.Ctx) error {
	var req dto.ForceEndpointRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ForceEndpoint(ctx.UserContext(), serverutils.UserIDFrom(ctx), ctx.Params("id"), &req)
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success force endpoint", res))
}

func (c *chatController) ResetSession(ctx *fiber.Ctx) error {
	err := c.service.ResetSession(ctx.UserContext(), serverutils.UserIDFrom(ctx), ctx.Params("id"))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}

func (c *chatController) ConversationTree(ctx *fiber.Ctx) error {
	res, err := c.service.ConversationTree(ctx.UserContext(), serverutils.UserIDFrom(ctx), ctx.Params("id"), serverutils.AuthKeyFrom(ctx))
	if err != nil {
		return handleError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation tree", res))
}
