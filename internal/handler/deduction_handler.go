package handler

import (
	"time"

	"go-stockledger-ws/internal/repository"
	"go-stockledger-ws/internal/service"
	"go-stockledger-ws/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeductionHandler struct {
	service service.LedgerService
}

func NewDeductionHandler(s service.LedgerService) *DeductionHandler {
	return &DeductionHandler{service: s}
}

type deductRequest struct {
	ProductID uuid.UUID       `json:"productId" validate:"uuid_required"`
	Amount    decimal.Decimal `json:"amount" validate:"decimal_positive"`
}

type returnRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"decimal_positive"`
}

// CreateDeduction records a stock deduction.
func (h *DeductionHandler) CreateDeduction(c *fiber.Ctx) error {
	var req deductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Field '" + errs[0].FailedField + "' failed on tag '" + errs[0].Tag + "'"})
	}

	deduction, err := h.service.Deduct(req.ProductID, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Deduction recorded", "data": deduction})
}

// ReturnDeduction undoes some or all of a deduction, restoring stock.
func (h *DeductionHandler) ReturnDeduction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid deduction ID"})
	}

	var req returnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Field '" + errs[0].FailedField + "' failed on tag '" + errs[0].Tag + "'"})
	}

	product, err := h.service.Return(id, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deduction returned", "data": product})
}

// DeleteDeduction forgets the journal record; the stock change stands.
func (h *DeductionHandler) DeleteDeduction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid deduction ID"})
	}

	if err := h.service.DeleteDeduction(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deduction deleted"})
}

// GetDeductions lists journal entries newest first, with optional category,
// date range, and product-name filters.
func (h *DeductionHandler) GetDeductions(c *fiber.Ctx) error {
	filter := repository.DeductionFilter{
		Category:            c.Query("category"),
		ProductNameContains: c.Query("q"),
		Limit:               c.QueryInt("limit"),
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid start_date, want YYYY-MM-DD"})
		}
		filter.DateFrom = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid end_date, want YYYY-MM-DD"})
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	deductions, err := h.service.GetDeductions(filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(deductions)
}

func (h *DeductionHandler) GetDeduction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid deduction ID"})
	}

	deduction, err := h.service.GetDeduction(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(deduction)
}
