// internal/server/sampling.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mcp-drink-rec/internal/config"
	"mcp-drink-rec/internal/logger"
	"mcp-drink-rec/internal/models"
	"mcp-drink-rec/internal/recommend"
)

type SamplingClient struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
}

func NewSamplingClient(cfg config.GatewayConfig) *SamplingClient {
	return &SamplingClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
		proxyURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
	}
}

const preferenceSystemPrompt = `You translate a coffee-shop customer's wish into nutrition preference levels.

IMPORTANT: Always respond with valid JSON in this exact format:
{
  "caffeine": "High|Medium|Low|Zero|No preference",
  "calories": "High|Medium|Low|No preference",
  "sugars": "High|Medium|Low|No preference",
  "protein": "High|Medium|Low|No preference",
  "total_fat": "High|Medium|Low|No preference",
  "prep": "milk or preparation named by the customer, otherwise empty",
  "clarifications": ["specific question1"],
  "needs_more_info": [true/false]
}

Reference ranges: caffeine Low 1-50 mg, Medium 50-150 mg, High 150+ mg, Zero none at all;
calories Low under 120, Medium 120-260, High 260+; sugars Low under 15 g, Medium 15-40 g, High 40+ g;
protein Low under 5 g, Medium 5-10 g, High 10+ g; total fat Low under 0.5 g, Medium 0.5-4 g, High 4+ g.
Use "No preference" for anything the customer did not mention.`

// ParsePreferences asks the gateway to map a description onto the level
// vocabularies. Answers that do not validate fall back to no preferences.
func (s *SamplingClient) ParsePreferences(ctx context.Context, req *models.PreferenceParseRequest) (*models.PreferenceParseResponse, error) {
	completionRequest := map[string]interface{}{
		"model":         s.model,
		"system_prompt": preferenceSystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": fmt.Sprintf("Customer wish: %q", req.Description),
			},
		},
		"max_tokens":  500,
		"temperature": 0.1,
	}

	gatewayResponse, err := s.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to get AI completion: %w", err)
	}

	return s.parseAIResponse(gatewayResponse), nil
}

func (s *SamplingClient) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", s.proxyURL)

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("request failed with status %d and couldn't read body: %v", resp.StatusCode, err)
		}
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var mcpResponse struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&mcpResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(mcpResponse.Result.Content) == 0 || mcpResponse.Result.Content[0].Text == "" {
		return "", fmt.Errorf("unexpected response format")
	}
	return mcpResponse.Result.Content[0].Text, nil
}

func (s *SamplingClient) parseAIResponse(aiOutput string) *models.PreferenceParseResponse {
	var completionResp struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(aiOutput), &completionResp); err != nil || completionResp.Content == "" {
		return fallbackResponse()
	}
	content := completionResp.Content

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return fallbackResponse()
	}

	var response models.PreferenceParseResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &response); err != nil {
		return fallbackResponse()
	}

	normalized, err := normalize(&response)
	if err != nil {
		logger.Debugf("discarding model answer: %v", err)
		return fallbackResponse()
	}
	return normalized
}

// normalize validates each level and rewrites it in canonical form.
func normalize(r *models.PreferenceParseResponse) (*models.PreferenceParseResponse, error) {
	prefs, err := recommend.ParsePreferences(map[recommend.Attribute]string{
		recommend.Caffeine: r.Caffeine,
		recommend.Calories: r.Calories,
		recommend.Sugars:   r.Sugars,
		recommend.Protein:  r.Protein,
		recommend.TotalFat: r.TotalFat,
		recommend.Prep:     r.Prep,
	})
	if err != nil {
		return nil, err
	}

	return &models.PreferenceParseResponse{
		Caffeine:       string(prefs.Caffeine),
		Calories:       string(prefs.Calories),
		Sugars:         string(prefs.Sugars),
		Protein:        string(prefs.Protein),
		TotalFat:       string(prefs.TotalFat),
		Prep:           prefs.Prep,
		Clarifications: r.Clarifications,
		NeedsMoreInfo:  r.NeedsMoreInfo,
	}, nil
}

func fallbackResponse() *models.PreferenceParseResponse {
	none := string(recommend.NoPreference)
	return &models.PreferenceParseResponse{
		Caffeine:      none,
		Calories:      none,
		Sugars:        none,
		Protein:       none,
		TotalFat:      none,
		NeedsMoreInfo: true,
		Clarifications: []string{
			"How much caffeine would you like (High, Medium, Low or Zero)?",
			"Do you prefer something sweet or low in sugar?",
			"Any particular milk, such as soymilk or nonfat milk?",
		},
	}
}
