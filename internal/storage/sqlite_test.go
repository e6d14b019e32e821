package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-drink-rec/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStorage(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, "SELECT 1 FROM drinks LIMIT 1")
	assert.NoError(t, err, "drinks table not created")
	_, err = s.db.ExecContext(ctx, "SELECT 1 FROM recommendations LIMIT 1")
	assert.NoError(t, err, "recommendations table not created")
}

func TestReplaceAndListDrinks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	drinks := []models.Drink{
		{Name: "Brewed Coffee", Category: "Coffee", Prep: "Short", Calories: 3, TotalFatG: 0.1, SugarsG: 0, ProteinG: 0.3, CaffeineMg: 175},
		{Name: "Caffe Latte", Prep: "2% Milk", Calories: 100, TotalFatG: 3.5, SugarsG: 9, ProteinG: 6, CaffeineMg: 75},
		{Name: "Mystery Tea", Calories: 0, TotalFatG: 0, SugarsG: 0, ProteinG: 0, CaffeineMg: models.Missing()},
	}
	require.NoError(t, s.ReplaceDrinks(ctx, drinks))

	got, err := s.ListDrinks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, drinks[0], got[0])
	assert.Equal(t, drinks[1], got[1])
	assert.Equal(t, "Mystery Tea", got[2].Name)
	assert.True(t, models.IsMissing(got[2].CaffeineMg))

	n, err := s.CountDrinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReplaceDrinksOverwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceDrinks(ctx, []models.Drink{{Name: "Old"}, {Name: "Older"}}))
	require.NoError(t, s.ReplaceDrinks(ctx, []models.Drink{{Name: "B"}, {Name: "A"}}))

	got, err := s.ListDrinks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, "A", got[1].Name)
}

func TestListDrinksEmpty(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.ListDrinks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecommendationHistory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	first := &models.Recommendation{
		Preferences: map[string]string{"caffeine": "Zero"},
		Outcome:     models.OutcomeExact,
		Drinks:      []string{"Herbal Tea"},
		CreatedAt:   base,
	}
	second := &models.Recommendation{
		Preferences: map[string]string{"sugars": "Low", "total_fat": "Low"},
		Outcome:     models.OutcomeRelaxed,
		Dropped:     "total_fat",
		Drinks:      []string{"Skinny Latte", "Caffe Americano"},
		CreatedAt:   base.Add(1500 * time.Millisecond),
	}
	third := &models.Recommendation{
		Preferences: map[string]string{"calories": "High"},
		Outcome:     models.OutcomeNoMatch,
		Drinks:      []string{},
		CreatedAt:   base.Add(1120 * time.Millisecond),
	}

	for _, rec := range []*models.Recommendation{first, second, third} {
		require.NoError(t, s.SaveRecommendation(ctx, rec))
		assert.NotEmpty(t, rec.ID)
	}

	got, err := s.GetRecommendations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, third.ID, got[1].ID)
	assert.Equal(t, first.ID, got[2].ID)

	assert.Equal(t, models.OutcomeRelaxed, got[0].Outcome)
	assert.Equal(t, "total_fat", got[0].Dropped)
	assert.Equal(t, second.Preferences, got[0].Preferences)
	assert.Equal(t, second.Drinks, got[0].Drinks)
	assert.True(t, second.CreatedAt.Equal(got[0].CreatedAt))

	limited, err := s.GetRecommendations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveRecommendationDefaults(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rec := &models.Recommendation{Outcome: models.OutcomeUnfiltered}
	require.NoError(t, s.SaveRecommendation(ctx, rec))

	assert.Len(t, rec.ID, 36)
	assert.False(t, rec.CreatedAt.IsZero())
}
