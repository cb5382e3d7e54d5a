package service

import (
	"testing"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCatalogServiceProducts(t *testing.T) {
	t.Run("CreateAndList", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := model.Product{Name: "Rice", CategoryName: "Grains", Stock: 10}
		require.NoError(t, fx.catalog.CreateProduct(&p, "tester"))
		require.Equal(t, "tester", p.CreatedBy)

		all, err := fx.catalog.GetAllProducts()
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, "Rice", all[0].Name)
	})

	t.Run("RejectsDuplicateName", func(t *testing.T) {
		fx := newLedgerFixture(t)
		require.NoError(t, fx.catalog.CreateProduct(&model.Product{Name: "Rice", Stock: 1}, "tester"))
		err := fx.catalog.CreateProduct(&model.Product{Name: "Rice", Stock: 2}, "tester")
		require.Error(t, err)
	})

	t.Run("RejectsMissingName", func(t *testing.T) {
		fx := newLedgerFixture(t)
		err := fx.catalog.CreateProduct(&model.Product{Stock: 1}, "tester")
		require.Error(t, err)
	})

	t.Run("RejectsDivisibleWithoutFractionSize", func(t *testing.T) {
		fx := newLedgerFixture(t)
		err := fx.catalog.CreateProduct(&model.Product{Name: "Sack", Stock: 1, IsDivisible: true}, "tester")
		require.Error(t, err)
	})

	t.Run("RejectsRemainderOutOfRange", func(t *testing.T) {
		fx := newLedgerFixture(t)
		err := fx.catalog.CreateProduct(&model.Product{
			Name:              "Sack",
			Stock:             1,
			IsDivisible:       true,
			FractionPerUnit:   dec("50"),
			FractionRemaining: dec("50"),
		}, "tester")
		require.Error(t, err)
	})

	t.Run("UpdateUnknownProductFailsNotFound", func(t *testing.T) {
		fx := newLedgerFixture(t)
		_, err := fx.catalog.UpdateProduct(uuid.New(), &model.Product{Name: "Ghost"}, "tester")
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("DeleteLeavesJournalSnapshotsIntact", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", CategoryName: "Grains", Stock: 10})

		_, err := fx.ledger.Deduct(p.ID, dec("4"))
		require.NoError(t, err)

		require.NoError(t, fx.catalog.DeleteProduct(p.ID, "tester"))

		all, err := fx.catalog.GetAllProducts()
		require.NoError(t, err)
		require.Empty(t, all)

		entries := fx.journal(t)
		require.Len(t, entries, 1)
		require.Equal(t, "Rice", entries[0].ProductName)
		require.Equal(t, "Grains", entries[0].CategoryName)
	})

	t.Run("DeleteUnknownProductFailsNotFound", func(t *testing.T) {
		fx := newLedgerFixture(t)
		p := fx.addProduct(t, model.Product{Name: "Rice", Stock: 1})
		require.NoError(t, fx.catalog.DeleteProduct(p.ID, "tester"))
		require.ErrorIs(t, fx.catalog.DeleteProduct(p.ID, "tester"), apperr.ErrNotFound)
	})
}

func TestCatalogServiceCategories(t *testing.T) {
	t.Run("CreateAndList", func(t *testing.T) {
		fx := newLedgerFixture(t)
		require.NoError(t, fx.catalog.CreateCategory(&model.Category{Name: "Grains"}, "tester"))
		require.NoError(t, fx.catalog.CreateCategory(&model.Category{Name: "Oils"}, "tester"))

		all, err := fx.catalog.GetAllCategories()
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, "Grains", all[0].Name)
	})

	t.Run("RejectsDuplicateName", func(t *testing.T) {
		fx := newLedgerFixture(t)
		require.NoError(t, fx.catalog.CreateCategory(&model.Category{Name: "Grains"}, "tester"))
		require.Error(t, fx.catalog.CreateCategory(&model.Category{Name: "Grains"}, "tester"))
	})
}
