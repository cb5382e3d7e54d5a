package service

import (
	"sync"
	"testing"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/feed"
	"go-stockledger-ws/internal/ledger"
	"go-stockledger-ws/internal/model"
	"go-stockledger-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type ledgerFixture struct {
	store   *repository.MemoryStore
	feed    *feed.Feed
	ledger  LedgerService
	catalog CatalogService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	f := feed.New(zap.NewNop())
	return &ledgerFixture{
		store:   store,
		feed:    f,
		ledger:  NewLedgerService(store, store.Deductions(), f, zap.NewNop()),
		catalog: NewCatalogService(store, store.Categories(), store, f, zap.NewNop()),
	}
}

func (fx *ledgerFixture) addProduct(t *testing.T, p model.Product) *model.Product {
	t.Helper()
	require.NoError(t, fx.store.Create(&p))
	return &p
}

func (fx *ledgerFixture) productByID(t *testing.T, id uuid.UUID) *model.Product {
	t.Helper()
	p, err := fx.store.FindByID(id)
	require.NoError(t, err)
	return p
}

func (fx *ledgerFixture) journal(t *testing.T) []model.Deduction {
	t.Helper()
	all, err := fx.store.Deductions().Query(repository.DeductionFilter{Limit: 1000})
	require.NoError(t, err)
	return all
}

func TestLedgerServiceDeduct(t *testing.T) {
	t.Run("DecrementsStockAndAppendsJournal", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", CategoryName: "Grains", Stock: 10})

		d, err := fx.ledger.Deduct(p.ID, dec("5"))
		require.NoError(t, err)
		require.Equal(t, 5, fx.productByID(t, p.ID).Stock)

		entries := fx.journal(t)
		require.Len(t, entries, 1)
		require.Equal(t, d.ID, entries[0].ID)
		require.Equal(t, "Rice", entries[0].ProductName)
		require.Equal(t, "Grains", entries[0].CategoryName)
		require.True(t, entries[0].Amount.Equal(dec("5")))
		require.False(t, entries[0].Date.IsZero())
	})

	t.Run("UnknownProductFailsNotFound", func(t *testing.T) {
		fx := newLedgerFixture(t)
		_, err := fx.ledger.Deduct(uuid.New(), dec("1"))
		require.ErrorIs(t, err, apperr.ErrNotFound)
		require.Empty(t, fx.journal(t))
	})

	t.Run("InsufficientStockLeavesNoTrace", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 3})

		_, err := fx.ledger.Deduct(p.ID, dec("4"))
		require.ErrorIs(t, err, apperr.ErrInsufficientStock)
		require.Equal(t, 3, fx.productByID(t, p.ID).Stock)
		require.Empty(t, fx.journal(t))
	})

	t.Run("DivisibleProductCrossesUnitBoundary", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{
			Name:              "Rice Sack",
			Stock:             3,
			IsDivisible:       true,
			FractionPerUnit:   dec("50"),
			FractionRemaining: dec("20"),
		})

		_, err := fx.ledger.Deduct(p.ID, dec("30"))
		require.NoError(t, err)

		got := fx.productByID(t, p.ID)
		require.Equal(t, 2, got.Stock)
		require.True(t, got.FractionRemaining.Equal(dec("40")))
	})

	t.Run("PublishesChangeFeedEvent", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})
		sub := fx.feed.Subscribe("test-observer", 4)
		defer sub.Close()

		_, err := fx.ledger.Deduct(p.ID, dec("2"))
		require.NoError(t, err)

		ev := <-sub.C
		require.Equal(t, feed.EventDeductionCreated, ev.Type)
		require.Equal(t, p.ID, ev.ProductID)
	})
}

func TestLedgerServiceReturn(t *testing.T) {
	t.Run("FullReturnRoundTripsStockAndRemovesRecord", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})

		d, err := fx.ledger.Deduct(p.ID, dec("5"))
		require.NoError(t, err)

		after, err := fx.ledger.Return(d.ID, dec("5"))
		require.NoError(t, err)
		require.Equal(t, 10, after.Stock)
		require.Empty(t, fx.journal(t))
	})

	t.Run("PartialReturnReducesAmountInPlace", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 20})

		d, err := fx.ledger.Deduct(p.ID, dec("10"))
		require.NoError(t, err)

		after, err := fx.ledger.Return(d.ID, dec("4"))
		require.NoError(t, err)
		require.Equal(t, 14, after.Stock)

		entries := fx.journal(t)
		require.Len(t, entries, 1)
		require.Equal(t, d.ID, entries[0].ID)
		require.True(t, entries[0].Amount.Equal(dec("6")))
	})

	t.Run("RejectsReturnLargerThanDeduction", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})

		d, err := fx.ledger.Deduct(p.ID, dec("5"))
		require.NoError(t, err)

		_, err = fx.ledger.Return(d.ID, dec("6"))
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
		require.Equal(t, 5, fx.productByID(t, p.ID).Stock)
	})

	t.Run("ReturnAfterDeleteFailsNotFound", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})

		d, err := fx.ledger.Deduct(p.ID, dec("5"))
		require.NoError(t, err)
		require.NoError(t, fx.ledger.DeleteDeduction(d.ID))

		_, err = fx.ledger.Return(d.ID, dec("5"))
		require.ErrorIs(t, err, apperr.ErrNotFound)
		require.Equal(t, 5, fx.productByID(t, p.ID).Stock)
	})
}

func TestLedgerServiceDeleteDeduction(t *testing.T) {
	t.Run("ForgetsRecordWithoutRestoringStock", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})

		d, err := fx.ledger.Deduct(p.ID, dec("5"))
		require.NoError(t, err)

		require.NoError(t, fx.ledger.DeleteDeduction(d.ID))
		require.Equal(t, 5, fx.productByID(t, p.ID).Stock)
		require.Empty(t, fx.journal(t))
	})

	t.Run("SecondDeleteFailsNotFoundWithoutStateChange", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})

		d, err := fx.ledger.Deduct(p.ID, dec("5"))
		require.NoError(t, err)
		require.NoError(t, fx.ledger.DeleteDeduction(d.ID))

		before := *fx.productByID(t, p.ID)
		err = fx.ledger.DeleteDeduction(d.ID)
		require.ErrorIs(t, err, apperr.ErrNotFound)
		require.Equal(t, before, *fx.productByID(t, p.ID))
		require.Empty(t, fx.journal(t))
	})
}

// Conservation: with no catalog edits, initial stock minus the sum of active
// deduction amounts equals current stock after every operation.
func TestLedgerConservation(t *testing.T) {
	fx := newLedgerFixture(t)
	const initial = 100
	p := fx.addProduct(t, model.Product{Name: "Rice", Stock: initial})

	check := func() {
		sum := decimal.Zero
		for _, d := range fx.journal(t) {
			sum = sum.Add(d.Amount)
		}
		current := fx.productByID(t, p.ID)
		require.True(t, decimal.NewFromInt(initial).Sub(sum).Equal(decimal.NewFromInt(int64(current.Stock))))
		require.GreaterOrEqual(t, current.Stock, 0)
	}

	d1, err := fx.ledger.Deduct(p.ID, dec("30"))
	require.NoError(t, err)
	check()

	d2, err := fx.ledger.Deduct(p.ID, dec("25"))
	require.NoError(t, err)
	check()

	_, err = fx.ledger.Return(d1.ID, dec("10"))
	require.NoError(t, err)
	check()

	_, err = fx.ledger.Return(d2.ID, dec("25"))
	require.NoError(t, err)
	check()

	_, err = fx.ledger.Deduct(p.ID, dec("80"))
	require.NoError(t, err)
	check()

	// Overdraw attempt changes nothing.
	_, err = fx.ledger.Deduct(p.ID, dec("10"))
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	check()
}

// Renaming a product must not rewrite historical journal snapshots.
func TestRenameKeepsJournalSnapshots(t *testing.T) {
	fx := newLedgerFixture(t)
	p := fx.addProduct(t, model.Product{Name: "Rice", CategoryName: "Grains", Stock: 50})

	_, err := fx.ledger.Deduct(p.ID, dec("5"))
	require.NoError(t, err)

	renamed := *fx.productByID(t, p.ID)
	renamed.Name = "Premium Rice"
	_, err = fx.catalog.UpdateProduct(p.ID, &renamed, "tester")
	require.NoError(t, err)

	_, err = fx.ledger.Deduct(p.ID, dec("3"))
	require.NoError(t, err)

	entries := fx.journal(t)
	require.Len(t, entries, 2)
	require.Equal(t, "Premium Rice", entries[0].ProductName) // newest first
	require.Equal(t, "Rice", entries[1].ProductName)
}

// Two concurrent deductions that jointly exceed stock but individually fit
// must yield exactly one success; the loser sees the fresh state after its
// conflict retry and fails with InsufficientStock.
func TestConcurrentDeductsNeverOversell(t *testing.T) {
	for round := 0; round < 50; round++ {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 10})

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = fx.ledger.Deduct(p.ID, dec("6"))
			}(i)
		}
		wg.Wait()

		var successes, failures int
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			failures++
			require.ErrorIs(t, err, apperr.ErrInsufficientStock)
		}
		require.Equal(t, 1, successes)
		require.Equal(t, 1, failures)
		require.Equal(t, 4, fx.productByID(t, p.ID).Stock)
		require.Len(t, fx.journal(t), 1)
	}
}
