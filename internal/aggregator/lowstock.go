// Package aggregator derives the dashboard's live summary views. Each
// aggregator is a pure snapshot-to-view function wrapped in a feed-driven
// loop that recomputes the whole view from the store on every relevant
// event. Nothing is patched incrementally, so a missed event can only delay
// a view, never corrupt it.
package aggregator

import (
	"sort"
	"sync"

	"go-stockledger-ws/internal/feed"
	"go-stockledger-ws/internal/model"
	"go-stockledger-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultLowStockThreshold = 10
	DefaultLowStockCap       = 20
)

type LowStockItem struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	CategoryName      string          `json:"categoryName"`
	Stock             int             `json:"stock"`
	IsDivisible       bool            `json:"isDivisible"`
	FractionRemaining decimal.Decimal `json:"fractionRemaining"`
}

type LowStockView struct {
	Threshold int            `json:"threshold"`
	Items     []LowStockItem `json:"items"`
}

// BuildLowStockView filters a product snapshot down to items with
// stock < threshold, ordered by ascending stock then name, capped at limit.
func BuildLowStockView(products []model.Product, threshold, limit int) LowStockView {
	items := make([]LowStockItem, 0)
	for _, p := range products {
		if p.Stock >= threshold {
			continue
		}
		items = append(items, LowStockItem{
			ID:                p.ID,
			Name:              p.Name,
			CategoryName:      p.CategoryName,
			Stock:             p.Stock,
			IsDivisible:       p.IsDivisible,
			FractionRemaining: p.FractionRemaining,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Stock != items[j].Stock {
			return items[i].Stock < items[j].Stock
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return LowStockView{Threshold: threshold, Items: items}
}

// Broadcaster pushes a recomputed view to connected dashboard clients.
type Broadcaster interface {
	BroadcastJSON(v interface{})
}

// LowStockMonitor keeps the low-stock view current as the ledger changes.
type LowStockMonitor struct {
	repo      repository.ProductRepository
	sub       *feed.Subscription
	hub       Broadcaster
	log       *zap.Logger
	threshold int
	limit     int

	mu   sync.RWMutex
	view LowStockView
}

func NewLowStockMonitor(repo repository.ProductRepository, f *feed.Feed, hub Broadcaster, log *zap.Logger) *LowStockMonitor {
	return &LowStockMonitor{
		repo:      repo,
		sub:       f.Subscribe("low-stock-monitor", 32),
		hub:       hub,
		log:       log,
		threshold: DefaultLowStockThreshold,
		limit:     DefaultLowStockCap,
	}
}

// Run consumes feed events until the subscription closes. Call in a
// goroutine; Close stops it.
func (m *LowStockMonitor) Run() {
	m.Recompute()
	for range m.sub.C {
		// Every ledger event can move a product across the threshold.
		m.Recompute()
	}
}

func (m *LowStockMonitor) Close() {
	m.sub.Close()
}

// Recompute re-derives the view from a fresh store snapshot and broadcasts it.
func (m *LowStockMonitor) Recompute() {
	products, err := m.repo.FindAll()
	if err != nil {
		m.log.Error("low-stock recompute failed", zap.Error(err))
		return
	}
	view := BuildLowStockView(products, m.threshold, m.limit)

	m.mu.Lock()
	m.view = view
	m.mu.Unlock()

	if m.hub != nil {
		m.hub.BroadcastJSON(map[string]interface{}{
			"type": "low_stock_view",
			"view": view,
		})
	}
}

// View returns the latest computed view.
func (m *LowStockMonitor) View() LowStockView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}
