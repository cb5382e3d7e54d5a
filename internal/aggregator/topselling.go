package aggregator

import (
	"sort"
	"sync"

	"go-stockledger-ws/internal/feed"
	"go-stockledger-ws/internal/model"
	"go-stockledger-ws/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTopSellingWindow = 100
	DefaultTopSellingLimit  = 5
)

type TopSellingItem struct {
	ProductName string          `json:"productName"`
	Total       decimal.Decimal `json:"total"`
}

type TopSellingView struct {
	Window int              `json:"window"`
	Items  []TopSellingItem `json:"items"`
}

// RankTopSelling groups a newest-first journal snapshot by product name,
// sums the amounts, and returns the top limit groups by total. Ties keep
// discovery order: the product whose name appeared first in the newest-first
// scan ranks ahead. The input order is the contract; callers pass journal
// rows sorted by date descending.
func RankTopSelling(deductions []model.Deduction, limit int) []TopSellingItem {
	index := make(map[string]int)
	items := make([]TopSellingItem, 0)
	for _, d := range deductions {
		idx, seen := index[d.ProductName]
		if !seen {
			index[d.ProductName] = len(items)
			items = append(items, TopSellingItem{ProductName: d.ProductName, Total: d.Amount})
			continue
		}
		items[idx].Total = items[idx].Total.Add(d.Amount)
	}
	// Stable sort preserves discovery order between equal totals.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total.GreaterThan(items[j].Total)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// TopSellingRanker keeps the top-selling view current as the journal changes.
type TopSellingRanker struct {
	repo   repository.DeductionRepository
	sub    *feed.Subscription
	hub    Broadcaster
	log    *zap.Logger
	window int
	limit  int

	mu   sync.RWMutex
	view TopSellingView
}

func NewTopSellingRanker(repo repository.DeductionRepository, f *feed.Feed, hub Broadcaster, log *zap.Logger) *TopSellingRanker {
	return &TopSellingRanker{
		repo:   repo,
		sub:    f.Subscribe("top-selling-ranker", 32),
		hub:    hub,
		log:    log,
		window: DefaultTopSellingWindow,
		limit:  DefaultTopSellingLimit,
	}
}

func (r *TopSellingRanker) Run() {
	r.Recompute()
	for ev := range r.sub.C {
		if !ev.TouchesJournal() {
			continue
		}
		r.Recompute()
	}
}

func (r *TopSellingRanker) Close() {
	r.sub.Close()
}

func (r *TopSellingRanker) Recompute() {
	recent, err := r.repo.Recent(r.window)
	if err != nil {
		r.log.Error("top-selling recompute failed", zap.Error(err))
		return
	}
	view := TopSellingView{Window: r.window, Items: RankTopSelling(recent, r.limit)}

	r.mu.Lock()
	r.view = view
	r.mu.Unlock()

	if r.hub != nil {
		r.hub.BroadcastJSON(map[string]interface{}{
			"type": "top_selling_view",
			"view": view,
		})
		// Clients also subscribe to the raw recent-journal window; it is
		// already in hand, so push it alongside the ranking.
		r.hub.BroadcastJSON(map[string]interface{}{
			"type":       "journal_view",
			"deductions": recent,
		})
	}
}

func (r *TopSellingRanker) View() TopSellingView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}
