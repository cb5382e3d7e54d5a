package aggregator

import (
	"fmt"
	"testing"
	"time"

	"go-stockledger-ws/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func journalEntry(name, amount string, age time.Duration) model.Deduction {
	return model.Deduction{
		ProductName: name,
		Amount:      decimal.RequireFromString(amount),
		Date:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(-age),
	}
}

// twelve entries across four products, newest first; Rice and Beans tie on 30.
func rankingFixture() []model.Deduction {
	return []model.Deduction{
		journalEntry("Rice", "10", 1*time.Minute),
		journalEntry("Flour", "2", 2*time.Minute),
		journalEntry("Beans", "12", 3*time.Minute),
		journalEntry("Sugar", "50", 4*time.Minute),
		journalEntry("Rice", "5", 5*time.Minute),
		journalEntry("Beans", "8", 6*time.Minute),
		journalEntry("Flour", "1", 7*time.Minute),
		journalEntry("Rice", "15", 8*time.Minute),
		journalEntry("Sugar", "3", 9*time.Minute),
		journalEntry("Beans", "10", 10*time.Minute),
		journalEntry("Flour", "2", 11*time.Minute),
		journalEntry("Sugar", "1", 12*time.Minute),
	}
}

func TestRankTopSelling(t *testing.T) {
	t.Run("GroupsSumsAndSorts", func(t *testing.T) {
		items := RankTopSelling(rankingFixture(), 5)
		require.Len(t, items, 4)

		// Sugar 54, then the Rice/Beans tie at 30, then Flour 5.
		require.Equal(t, "Sugar", items[0].ProductName)
		require.True(t, items[0].Total.Equal(decimal.NewFromInt(54)))
		require.Equal(t, "Flour", items[3].ProductName)
		require.True(t, items[3].Total.Equal(decimal.NewFromInt(5)))
	})

	t.Run("TieBreaksByDiscoveryOrder", func(t *testing.T) {
		// Rice appears before Beans in the newest-first scan, so the 30/30
		// tie keeps Rice ahead.
		items := RankTopSelling(rankingFixture(), 5)
		require.Equal(t, "Rice", items[1].ProductName)
		require.Equal(t, "Beans", items[2].ProductName)
		require.True(t, items[1].Total.Equal(items[2].Total))
	})

	t.Run("DeterministicAcrossInvocations", func(t *testing.T) {
		first := RankTopSelling(rankingFixture(), 5)
		for i := 0; i < 10; i++ {
			again := RankTopSelling(rankingFixture(), 5)
			require.Equal(t, len(first), len(again))
			for j := range first {
				require.Equal(t, first[j].ProductName, again[j].ProductName)
				require.True(t, first[j].Total.Equal(again[j].Total))
			}
		}
	})

	t.Run("TruncatesToLimit", func(t *testing.T) {
		var entries []model.Deduction
		for i := 0; i < 8; i++ {
			entries = append(entries, journalEntry(fmt.Sprintf("P%d", i), fmt.Sprintf("%d", 100-i), time.Duration(i)*time.Minute))
		}
		items := RankTopSelling(entries, 5)
		require.Len(t, items, 5)
		require.Equal(t, "P0", items[0].ProductName)
		require.Equal(t, "P4", items[4].ProductName)
	})

	t.Run("EmptyJournal", func(t *testing.T) {
		require.Empty(t, RankTopSelling(nil, 5))
	})
}
