// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-drink-rec/internal/logger"
	"mcp-drink-rec/internal/models"
	"mcp-drink-rec/internal/recommend"
)

type RecommendParams struct {
	Caffeine string `json:"caffeine,omitempty" description:"High, Medium, Low, Zero or No preference"`
	Calories string `json:"calories,omitempty" description:"High, Medium, Low or No preference"`
	Sugars   string `json:"sugars,omitempty" description:"High, Medium, Low or No preference"`
	Protein  string `json:"protein,omitempty" description:"High, Medium, Low or No preference"`
	TotalFat string `json:"total_fat,omitempty" description:"High, Medium, Low or No preference"`
	Prep     string `json:"prep,omitempty" description:"Preparation or milk type, e.g. Soymilk"`
}

type ParsePreferencesParams struct {
	Description string `json:"description" description:"What the user feels like drinking, in their own words"`
}

type GetRecommendationsParams struct {
	Limit int `json:"limit,omitempty" description:"Maximum number of history entries to return"`
}

type RecommendResponse struct {
	ID          string                 `json:"id"`
	Outcome     models.Outcome         `json:"outcome"`
	Dropped     recommend.Attribute    `json:"dropped,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Drinks      []models.Drink         `json:"drinks"`
	Constraints []recommend.Constraint `json:"constraints"`
}

type LevelInfo struct {
	Level recommend.Level `json:"level"`
	Range recommend.Range `json:"range"`
}

type LevelsResponse struct {
	Attributes  map[recommend.Attribute][]LevelInfo `json:"attributes"`
	PrepOptions []string                            `json:"prep_options"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

func (p RecommendParams) raw() map[recommend.Attribute]string {
	return map[recommend.Attribute]string{
		recommend.Caffeine: p.Caffeine,
		recommend.Calories: p.Calories,
		recommend.Sugars:   p.Sugars,
		recommend.Protein:  p.Protein,
		recommend.TotalFat: p.TotalFat,
		recommend.Prep:     p.Prep,
	}
}

// handleRecommendDrinks filters the catalogue and records the outcome.
func (s *DrinkRecServer) handleRecommendDrinks(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params RecommendParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	resp, err := s.recommend(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(resp)
}

func (s *DrinkRecServer) recommend(ctx context.Context, params RecommendParams) (*RecommendResponse, error) {
	prefs, err := recommend.ParsePreferences(params.raw())
	if err != nil {
		var invalid *recommend.InvalidLevelError
		if errors.As(err, &invalid) {
			s.metrics.ObserveInvalidLevel(string(invalid.Attribute))
		}
		return nil, err
	}

	start := time.Now()
	res, err := recommend.Recommend(s.drinks, prefs)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRecommendation(string(res.Outcome), string(res.Dropped), time.Since(start))

	rec := &models.Recommendation{
		Preferences: prefs.Map(),
		Outcome:     res.Outcome,
		Dropped:     string(res.Dropped),
		Drinks:      drinkNames(res.Drinks),
	}
	if err := s.storage.SaveRecommendation(ctx, rec); err != nil {
		// history is best effort
		logger.Warnf("failed to save recommendation: %v", err)
	}

	log := logger.With().
		Str("id", rec.ID).
		Str("outcome", string(res.Outcome)).
		Int("results", len(res.Drinks)).
		Logger()
	if res.Dropped != "" {
		log.Info().Str("dropped", string(res.Dropped)).Msg("relaxed preferences")
	} else {
		log.Info().Msg("recommendation served")
	}

	return &RecommendResponse{
		ID:          rec.ID,
		Outcome:     res.Outcome,
		Dropped:     res.Dropped,
		Message:     res.Message(),
		Drinks:      res.Drinks,
		Constraints: res.Constraints,
	}, nil
}

func drinkNames(drinks []models.Drink) []string {
	names := make([]string, 0, len(drinks))
	for _, d := range drinks {
		names = append(names, d.Name)
	}
	return names
}

// handleListLevels describes every vocabulary and the prep values on file.
func (s *DrinkRecServer) handleListLevels(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	resp := LevelsResponse{
		Attributes:  make(map[recommend.Attribute][]LevelInfo),
		PrepOptions: []string{},
	}

	for _, attr := range recommend.NumericAttributes {
		for _, level := range recommend.Levels(attr) {
			r, _, err := recommend.Resolve(attr, level)
			if err != nil {
				return nil, err
			}
			resp.Attributes[attr] = append(resp.Attributes[attr], LevelInfo{Level: level, Range: r})
		}
	}

	seen := make(map[string]bool)
	for _, d := range s.drinks {
		if d.Prep == "" || seen[d.Prep] {
			continue
		}
		seen[d.Prep] = true
		resp.PrepOptions = append(resp.PrepOptions, d.Prep)
	}
	sort.Strings(resp.PrepOptions)

	return s.createJSONResponse(resp)
}

// handleGetRecommendations retrieves history from storage
func (s *DrinkRecServer) handleGetRecommendations(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetRecommendationsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}

	recs, err := s.storage.GetRecommendations(ctx, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve recommendations: %w", err)
	}

	return s.createJSONResponse(recs)
}

// handleParsePreferences turns a free-text wish into validated levels.
func (s *DrinkRecServer) handleParsePreferences(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ParsePreferencesParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", errInvalidParams)
	}

	result, err := s.samplingClient.ParsePreferences(ctx, &models.PreferenceParseRequest{
		Description: params.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}

	return s.createJSONResponse(result)
}

func (s *DrinkRecServer) registerTools() {
	s.tools = map[string]toolHandler{
		"recommend_drinks":    s.handleRecommendDrinks,
		"list_levels":         s.handleListLevels,
		"get_recommendations": s.handleGetRecommendations,
		"parse_preferences":   s.handleParsePreferences,
	}

	for _, name := range s.toolNames() {
		logger.Debugf("registered tool: %s", name)
	}
}

func (s *DrinkRecServer) toolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
