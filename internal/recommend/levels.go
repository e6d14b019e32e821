// internal/recommend/levels.go
package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"mcp-drink-rec/internal/models"
)

type Attribute string

const (
	Caffeine Attribute = "caffeine"
	Calories Attribute = "calories"
	Sugars   Attribute = "sugars"
	Prep     Attribute = "prep"
	Protein  Attribute = "protein"
	TotalFat Attribute = "total_fat"
)

// NumericAttributes lists the range-filtered attributes in relaxation priority.
var NumericAttributes = []Attribute{Caffeine, Calories, Sugars, Protein, TotalFat}

type Level string

const (
	High         Level = "High"
	Medium       Level = "Medium"
	Low          Level = "Low"
	Zero         Level = "Zero"
	NoPreference Level = "No preference"
)

// ErrInvalidLevel is wrapped by every InvalidLevelError.
var ErrInvalidLevel = errors.New("invalid level")

// InvalidLevelError names the attribute and the value that is outside its
// vocabulary.
type InvalidLevelError struct {
	Attribute Attribute
	Value     string
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid level %q for %s (allowed: %s)",
		e.Value, e.Attribute, strings.Join(levelNames(e.Attribute), ", "))
}

func (e *InvalidLevelError) Unwrap() error {
	return ErrInvalidLevel
}

// Range is [Min, Max), or [Min, Max] when Closed is set.
type Range struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Closed bool    `json:"closed,omitempty"`
}

// Contains never matches a missing value.
func (r Range) Contains(v float64) bool {
	if models.IsMissing(v) || v < r.Min {
		return false
	}
	if r.Closed {
		return v <= r.Max
	}
	return v < r.Max
}

// MarshalJSON writes an unbounded Max as null.
func (r Range) MarshalJSON() ([]byte, error) {
	var upper *float64
	if !math.IsInf(r.Max, 1) {
		upper = &r.Max
	}
	return json.Marshal(struct {
		Min    float64  `json:"min"`
		Max    *float64 `json:"max"`
		Closed bool     `json:"closed,omitempty"`
	}{r.Min, upper, r.Closed})
}

func (r Range) String() string {
	upper := ")"
	if r.Closed {
		upper = "]"
	}
	if math.IsInf(r.Max, 1) {
		return fmt.Sprintf("[%g, inf)", r.Min)
	}
	return fmt.Sprintf("[%g, %g%s", r.Min, r.Max, upper)
}

var inf = math.Inf(1)

var thresholds = map[Attribute]map[Level]Range{
	Calories: {
		Low:    {Min: 0, Max: 120},
		Medium: {Min: 120, Max: 260},
		High:   {Min: 260, Max: inf},
	},
	Sugars: {
		Low:    {Min: 0, Max: 15},
		Medium: {Min: 15, Max: 40},
		High:   {Min: 40, Max: inf},
	},
	Protein: {
		Low:    {Min: 0, Max: 5},
		Medium: {Min: 5, Max: 10},
		High:   {Min: 10, Max: inf},
	},
	TotalFat: {
		Low:    {Min: 0, Max: 0.5},
		Medium: {Min: 0.5, Max: 4},
		High:   {Min: 4, Max: inf},
	},
	Caffeine: {
		Zero:   {Min: 0, Max: 0, Closed: true},
		Low:    {Min: 1, Max: 50},
		Medium: {Min: 50, Max: 150},
		High:   {Min: 150, Max: inf},
	},
}

var levelOrder = []Level{High, Medium, Low, Zero}

// Levels returns the vocabulary of attr, highest first. No preference is
// always accepted in addition.
func Levels(attr Attribute) []Level {
	table := thresholds[attr]
	var out []Level
	for _, l := range levelOrder {
		if _, ok := table[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

func levelNames(attr Attribute) []string {
	var names []string
	for _, l := range Levels(attr) {
		names = append(names, string(l))
	}
	return append(names, string(NoPreference))
}

// ParseLevel normalises user input for attr: case is ignored and the empty
// string, "any", "none" and "no preference" select NoPreference.
func ParseLevel(attr Attribute, s string) (Level, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "any", "none", "no preference", "no_preference":
		return NoPreference, nil
	}
	for _, l := range Levels(attr) {
		if strings.ToLower(string(l)) == v {
			return l, nil
		}
	}
	return "", &InvalidLevelError{Attribute: attr, Value: s}
}

// Resolve maps a level to its range. ok is false for NoPreference and for
// the zero Level.
func Resolve(attr Attribute, level Level) (r Range, ok bool, err error) {
	if level == NoPreference || level == "" {
		return Range{}, false, nil
	}
	table, known := thresholds[attr]
	if !known {
		return Range{}, false, fmt.Errorf("unknown attribute %q", attr)
	}
	r, ok = table[level]
	if !ok {
		return Range{}, false, &InvalidLevelError{Attribute: attr, Value: string(level)}
	}
	return r, true, nil
}

// Value reads attr from d. Prep and unknown attributes report missing.
func Value(d models.Drink, attr Attribute) float64 {
	switch attr {
	case Caffeine:
		return d.CaffeineMg
	case Calories:
		return d.Calories
	case Sugars:
		return d.SugarsG
	case Protein:
		return d.ProteinG
	case TotalFat:
		return d.TotalFatG
	}
	return models.Missing()
}
