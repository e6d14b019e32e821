// internal/recommend/engine.go
package recommend

import (
	"fmt"
	"strings"

	"mcp-drink-rec/internal/models"
)

// MaxResults caps every result list.
const MaxResults = 5

// Preferences holds one level per numeric attribute. The zero Level means no
// preference. Prep is matched case-insensitively against Drink.Prep.
type Preferences struct {
	Caffeine Level
	Calories Level
	Sugars   Level
	Protein  Level
	TotalFat Level
	Prep     string
}

// ParsePreferences validates raw level strings keyed by attribute. Missing
// keys mean no preference; the Prep key carries the preparation string.
func ParsePreferences(raw map[Attribute]string) (Preferences, error) {
	var p Preferences
	for _, attr := range NumericAttributes {
		level, err := ParseLevel(attr, raw[attr])
		if err != nil {
			return Preferences{}, err
		}
		p.set(attr, level)
	}
	p.Prep = strings.TrimSpace(raw[Prep])
	return p, nil
}

func (p *Preferences) set(attr Attribute, level Level) {
	switch attr {
	case Caffeine:
		p.Caffeine = level
	case Calories:
		p.Calories = level
	case Sugars:
		p.Sugars = level
	case Protein:
		p.Protein = level
	case TotalFat:
		p.TotalFat = level
	}
}

// Level returns the level chosen for attr.
func (p Preferences) Level(attr Attribute) Level {
	switch attr {
	case Caffeine:
		return p.Caffeine
	case Calories:
		return p.Calories
	case Sugars:
		return p.Sugars
	case Protein:
		return p.Protein
	case TotalFat:
		return p.TotalFat
	}
	return ""
}

// Map lists the attributes that carry a preference.
func (p Preferences) Map() map[string]string {
	out := make(map[string]string)
	for _, attr := range NumericAttributes {
		if l := p.Level(attr); l != "" && l != NoPreference {
			out[string(attr)] = string(l)
		}
	}
	if prep := strings.TrimSpace(p.Prep); prep != "" {
		out[string(Prep)] = prep
	}
	return out
}

// Constraint restricts one attribute, either to a Range or, for Prep, to an
// exact preparation.
type Constraint struct {
	Attribute Attribute `json:"attribute"`
	Range     *Range    `json:"range,omitempty"`
	Prep      string    `json:"prep,omitempty"`
}

// Categorical constraints are never relaxed.
func (c Constraint) Categorical() bool {
	return c.Attribute == Prep
}

func (c Constraint) Matches(d models.Drink) bool {
	if c.Categorical() {
		return strings.EqualFold(strings.TrimSpace(d.Prep), c.Prep)
	}
	return c.Range.Contains(Value(d, c.Attribute))
}

// Constraints resolves p in filter priority order: caffeine, calories,
// sugars, prep, protein, total fat. Attributes without a preference are
// skipped entirely.
func (p Preferences) Constraints() ([]Constraint, error) {
	var out []Constraint
	add := func(attr Attribute) error {
		r, ok, err := Resolve(attr, p.Level(attr))
		if err != nil {
			return err
		}
		if ok {
			out = append(out, Constraint{Attribute: attr, Range: &r})
		}
		return nil
	}

	for _, attr := range []Attribute{Caffeine, Calories, Sugars} {
		if err := add(attr); err != nil {
			return nil, err
		}
	}
	if prep := strings.TrimSpace(p.Prep); prep != "" {
		out = append(out, Constraint{Attribute: Prep, Prep: prep})
	}
	for _, attr := range []Attribute{Protein, TotalFat} {
		if err := add(attr); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type Result struct {
	Drinks      []models.Drink `json:"drinks"`
	Outcome     models.Outcome `json:"outcome"`
	Dropped     Attribute      `json:"dropped,omitempty"`
	Constraints []Constraint   `json:"constraints"`
}

// Empty reports the no-match outcome; an empty catalogue is empty too.
func (r *Result) Empty() bool {
	return len(r.Drinks) == 0
}

// Message explains a non-exact outcome to the user.
func (r *Result) Message() string {
	switch r.Outcome {
	case models.OutcomeRelaxed:
		return fmt.Sprintf("No exact matches found; ignored the %s preference.",
			strings.ReplaceAll(string(r.Dropped), "_", " "))
	case models.OutcomeNoMatch:
		return "No drinks match these preferences, even with one preference relaxed."
	case models.OutcomeUnfiltered:
		return "No preferences given; showing drinks from the top of the catalog."
	}
	return ""
}

// Recommend filters drinks by prefs. When the full conjunction matches
// nothing, each numeric constraint is dropped in turn (priority order) and the
// first non-empty result wins. The only error is an invalid level; an
// unsatisfiable request yields OutcomeNoMatch. drinks is never modified.
func Recommend(drinks []models.Drink, prefs Preferences) (*Result, error) {
	constraints, err := prefs.Constraints()
	if err != nil {
		return nil, err
	}

	res := &Result{Constraints: constraints}
	if len(constraints) == 0 {
		res.Drinks = top(drinks)
		res.Outcome = models.OutcomeUnfiltered
		return res, nil
	}

	if matched := filter(drinks, constraints, -1); len(matched) > 0 {
		res.Drinks = top(matched)
		res.Outcome = models.OutcomeExact
		return res, nil
	}

	if matched, dropped, ok := relax(drinks, constraints); ok {
		res.Drinks = top(matched)
		res.Outcome = models.OutcomeRelaxed
		res.Dropped = dropped
		return res, nil
	}

	res.Drinks = []models.Drink{}
	res.Outcome = models.OutcomeNoMatch
	return res, nil
}

func relax(drinks []models.Drink, constraints []Constraint) ([]models.Drink, Attribute, bool) {
	for i, c := range constraints {
		if c.Categorical() {
			continue
		}
		if matched := filter(drinks, constraints, i); len(matched) > 0 {
			return matched, c.Attribute, true
		}
	}
	return nil, "", false
}

// filter returns the drinks satisfying every constraint except the one at
// index skip (-1 keeps all).
func filter(drinks []models.Drink, constraints []Constraint, skip int) []models.Drink {
	var out []models.Drink
next:
	for _, d := range drinks {
		for i, c := range constraints {
			if i != skip && !c.Matches(d) {
				continue next
			}
		}
		out = append(out, d)
	}
	return out
}

// top keeps the first drink of each name, up to MaxResults.
func top(drinks []models.Drink) []models.Drink {
	seen := make(map[string]bool)
	out := make([]models.Drink, 0, MaxResults)
	for _, d := range drinks {
		if len(out) == MaxResults {
			break
		}
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out
}
