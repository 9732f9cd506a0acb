package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/suricat89/baas-core/internal/auth"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
)

type StatementHandler struct {
	lg  *logging.ZapLogger
	eng StatementEngine
}

type StatementEngine interface {
	Statement(
		ctx context.Context,
		caller auth.Identity,
		ref models.AccountRef,
		from, to time.Time,
	) (*models.Statement, error)
}

func NewStatementHandler(eng StatementEngine, lg *logging.ZapLogger) *StatementHandler {
	return &StatementHandler{eng: eng, lg: lg}
}

func (h *StatementHandler) GetStatement(c *fiber.Ctx) error {
	caller, err := callerFromRequest(c)
	if err != nil {
		return err
	}

	ref := models.AccountRef{
		Agency:        int64(c.QueryInt("agency")),
		AccountNumber: int64(c.QueryInt("accountNumber")),
	}

	from, ok := parseDate(c.Query("startDate"), false)
	if !ok {
		return renderError(c, models.NewValidationError("startDate"))
	}
	to, ok := parseDate(c.Query("endDate"), true)
	if !ok {
		return renderError(c, models.NewValidationError("endDate"))
	}

	statement, err := h.eng.Statement(c.Context(), caller, ref, from, to)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"account": statement})
}

// parseDate accepts RFC3339 or a plain date. A plain endDate extends to the
// end of that day, matching the inclusive window the statement promises.
// The zero time stands for "not supplied".
func parseDate(raw string, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}

	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return t, true
}
