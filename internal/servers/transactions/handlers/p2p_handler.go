package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/suricat89/baas-core/internal/auth"
	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
)

type P2PHandler struct {
	lg  *logging.ZapLogger
	eng P2PEngine
}

type P2PEngine interface {
	ExecuteP2P(ctx context.Context, caller auth.Identity, params engine.P2PParams) (*models.Receipt, error)
}

func NewP2PHandler(eng P2PEngine, lg *logging.ZapLogger) *P2PHandler {
	return &P2PHandler{eng: eng, lg: lg}
}

type p2pRequest struct {
	OriginAccount      models.AccountRef `json:"originAccount"`
	DestinationAccount models.AccountRef `json:"destinationAccount"`
	Value              int64             `json:"value"`
}

func (h *P2PHandler) NewP2P(c *fiber.Ctx) error {
	caller, err := callerFromRequest(c)
	if err != nil {
		return err
	}

	req := p2pRequest{}
	if err := c.BodyParser(&req); err != nil {
		return renderError(c, models.NewValidationError("body"))
	}

	receipt, err := h.eng.ExecuteP2P(c.Context(), caller, engine.P2PParams{
		Origin:      req.OriginAccount,
		Destination: req.DestinationAccount,
		Value:       req.Value,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"transaction": receipt})
}
