// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mcp-drink-rec/internal/models"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS drinks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        prep TEXT NOT NULL DEFAULT '',
        calories REAL,
        total_fat_g REAL,
        sugars_g REAL,
        protein_g REAL,
        caffeine_mg REAL
    );

    CREATE TABLE IF NOT EXISTS recommendations (
        id TEXT PRIMARY KEY,
        preferences TEXT NOT NULL,
        outcome TEXT NOT NULL,
        dropped TEXT NOT NULL DEFAULT '',
        drinks TEXT NOT NULL,
        created_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_drinks_name ON drinks(name);
    CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// ReplaceDrinks swaps the whole catalogue in one transaction. Row ids follow
// slice order, which ListDrinks preserves.
func (s *SQLiteStorage) ReplaceDrinks(ctx context.Context, drinks []models.Drink) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drinks`); err != nil {
		return fmt.Errorf("failed to clear drinks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'drinks'`); err != nil {
		return fmt.Errorf("failed to reset drink ids: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO drinks (name, category, prep, calories, total_fat_g, sugars_g, protein_g, caffeine_mg)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range drinks {
		_, err = stmt.ExecContext(ctx,
			d.Name, d.Category, d.Prep,
			nullable(d.Calories), nullable(d.TotalFatG), nullable(d.SugarsG),
			nullable(d.ProteinG), nullable(d.CaffeineMg))
		if err != nil {
			return fmt.Errorf("failed to insert drink %q: %w", d.Name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) ListDrinks(ctx context.Context) ([]models.Drink, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, category, prep, calories, total_fat_g, sugars_g, protein_g, caffeine_mg
        FROM drinks
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query drinks: %w", err)
	}
	defer rows.Close()

	drinks := []models.Drink{}
	for rows.Next() {
		var d models.Drink
		var calories, fat, sugars, protein, caffeine sql.NullFloat64

		err := rows.Scan(&d.Name, &d.Category, &d.Prep,
			&calories, &fat, &sugars, &protein, &caffeine)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drink: %w", err)
		}

		d.Calories = value(calories)
		d.TotalFatG = value(fat)
		d.SugarsG = value(sugars)
		d.ProteinG = value(protein)
		d.CaffeineMg = value(caffeine)
		drinks = append(drinks, d)
	}

	return drinks, rows.Err()
}

func (s *SQLiteStorage) CountDrinks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drinks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count drinks: %w", err)
	}
	return n, nil
}

// SaveRecommendation assigns an ID and timestamp when they are unset.
func (s *SQLiteStorage) SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	prefs, err := json.Marshal(rec.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	names, err := json.Marshal(rec.Drinks)
	if err != nil {
		return fmt.Errorf("failed to encode drinks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO recommendations (id, preferences, outcome, dropped, drinks, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, rec.ID, string(prefs), string(rec.Outcome), rec.Dropped, string(names),
		rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return nil
}

// GetRecommendations returns the newest entries first.
func (s *SQLiteStorage) GetRecommendations(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, preferences, outcome, dropped, drinks, created_at
        FROM recommendations
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	recs := []*models.Recommendation{}
	for rows.Next() {
		rec := &models.Recommendation{}
		var prefs, names, outcome, createdAt string

		if err := rows.Scan(&rec.ID, &prefs, &outcome, &rec.Dropped, &names, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}

		rec.Outcome = models.Outcome(outcome)
		if err := json.Unmarshal([]byte(prefs), &rec.Preferences); err != nil {
			return nil, fmt.Errorf("failed to decode preferences of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(names), &rec.Drinks); err != nil {
			return nil, fmt.Errorf("failed to decode drinks of %s: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !models.IsMissing(v)}
}

func value(n sql.NullFloat64) float64 {
	if !n.Valid {
		return models.Missing()
	}
	return n.Float64
}
