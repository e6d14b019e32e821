// internal/models/drink.go
package models

import (
	"encoding/json"
	"math"
	"time"
)

// Drink is one beverage row of the catalogue. Numeric fields that could not
// be parsed hold NaN.
type Drink struct {
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Prep       string  `json:"prep,omitempty"`
	Calories   float64 `json:"calories"`
	TotalFatG  float64 `json:"total_fat_g"`
	SugarsG    float64 `json:"sugars_g"`
	ProteinG   float64 `json:"protein_g"`
	CaffeineMg float64 `json:"caffeine_mg"`
}

// Missing marks a numeric value that is absent or unparseable.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v was produced by Missing.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// MarshalJSON writes missing values as null.
func (d Drink) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name       string   `json:"name"`
		Category   string   `json:"category,omitempty"`
		Prep       string   `json:"prep,omitempty"`
		Calories   *float64 `json:"calories"`
		TotalFatG  *float64 `json:"total_fat_g"`
		SugarsG    *float64 `json:"sugars_g"`
		ProteinG   *float64 `json:"protein_g"`
		CaffeineMg *float64 `json:"caffeine_mg"`
	}{
		Name:       d.Name,
		Category:   d.Category,
		Prep:       d.Prep,
		Calories:   present(d.Calories),
		TotalFatG:  present(d.TotalFatG),
		SugarsG:    present(d.SugarsG),
		ProteinG:   present(d.ProteinG),
		CaffeineMg: present(d.CaffeineMg),
	})
}

func present(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	return &v
}

type Outcome string

const (
	OutcomeExact      Outcome = "exact"
	OutcomeRelaxed    Outcome = "relaxed"
	OutcomeNoMatch    Outcome = "no_match"
	OutcomeUnfiltered Outcome = "unfiltered"
)

// Recommendation is a stored history entry.
type Recommendation struct {
	ID          string            `json:"id"`
	Preferences map[string]string `json:"preferences"`
	Outcome     Outcome           `json:"outcome"`
	Dropped     string            `json:"dropped,omitempty"`
	Drinks      []string          `json:"drinks"`
	CreatedAt   time.Time         `json:"created_at"`
}

type PreferenceParseRequest struct {
	Description string `json:"description"`
}

type PreferenceParseResponse struct {
	Caffeine       string   `json:"caffeine"`
	Calories       string   `json:"calories"`
	Sugars         string   `json:"sugars"`
	Protein        string   `json:"protein"`
	TotalFat       string   `json:"total_fat"`
	Prep           string   `json:"prep,omitempty"`
	Clarifications []string `json:"clarifications,omitempty"`
	NeedsMoreInfo  bool     `json:"needs_more_info"`
}
