package handler

import (
	"go-stockledger-ws/internal/aggregator"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	lowStock   *aggregator.LowStockMonitor
	topSelling *aggregator.TopSellingRanker
}

func NewDashboardHandler(low *aggregator.LowStockMonitor, top *aggregator.TopSellingRanker) *DashboardHandler {
	return &DashboardHandler{lowStock: low, topSelling: top}
}

// GetLowStock returns the current low-stock view.
func (h *DashboardHandler) GetLowStock(c *fiber.Ctx) error {
	return c.JSON(h.lowStock.View())
}

// GetTopSelling returns the current top-selling ranking.
func (h *DashboardHandler) GetTopSelling(c *fiber.Ctx) error {
	return c.JSON(h.topSelling.View())
}
