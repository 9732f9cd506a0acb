package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/suricat89/baas-core/internal/auth"
	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
)

type SimpleTransactionHandler struct {
	lg  *logging.ZapLogger
	eng SimpleTransactionEngine
}

type SimpleTransactionEngine interface {
	Execute(
		ctx context.Context,
		caller auth.Identity,
		transactionType models.TransactionType,
		params engine.SimpleTransactionParams,
	) (*models.Receipt, error)
}

func NewSimpleTransactionHandler(eng SimpleTransactionEngine, lg *logging.ZapLogger) *SimpleTransactionHandler {
	return &SimpleTransactionHandler{eng: eng, lg: lg}
}

type simpleTransactionRequest struct {
	Agency        int64 `json:"agency"`
	AccountNumber int64 `json:"accountNumber"`
	Value         int64 `json:"value"`
}

func (h *SimpleTransactionHandler) NewWithdraw(c *fiber.Ctx) error {
	return h.execute(c, models.TransactionWithdraw)
}

func (h *SimpleTransactionHandler) NewDeposit(c *fiber.Ctx) error {
	return h.execute(c, models.TransactionDeposit)
}

func (h *SimpleTransactionHandler) NewDebit(c *fiber.Ctx) error {
	return h.execute(c, models.TransactionDebit)
}

func (h *SimpleTransactionHandler) execute(c *fiber.Ctx, transactionType models.TransactionType) error {
	caller, err := callerFromRequest(c)
	if err != nil {
		return err
	}

	req := simpleTransactionRequest{}
	if err := c.BodyParser(&req); err != nil {
		return renderError(c, models.NewValidationError("body"))
	}

	receipt, err := h.eng.Execute(c.Context(), caller, transactionType, engine.SimpleTransactionParams{
		Account: models.AccountRef{Agency: req.Agency, AccountNumber: req.AccountNumber},
		Value:   req.Value,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"transaction": receipt})
}
