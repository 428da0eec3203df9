package consensus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rustyeddy/whalecopy/market"
)

// Request carries what an estimator needs to price a market independently.
type Request struct {
	Market      market.Key
	Title       string
	Side        market.Side
	CurrentOdds float64
}

// Estimator is a black-box probability model. Estimate returns the backend's
// probability for the YES outcome in [0,1], or an error. Implementations must
// honor ctx cancellation.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, req Request) (float64, error)
}

// Static returns a fixed estimate. Used for tests and the offline demo.
type Static struct {
	Label string
	Value float64
	Err   error
}

func (s Static) Name() string { return s.Label }

func (s Static) Estimate(ctx context.Context, _ Request) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Value, nil
}

// LLMEstimator asks a chat-completions endpoint to estimate the probability
// of the market's YES outcome and parses the JSON it returns.
type LLMEstimator struct {
	label   string
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewLLM builds an estimator against an OpenAI-compatible chat-completions
// endpoint. baseURL should be the full completions URL, for example
// "https://api.mistral.ai/v1/chat/completions".
func NewLLM(label, baseURL, model, apiKey string) *LLMEstimator {
	return &LLMEstimator{
		label:   label,
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (e *LLMEstimator) Name() string { return e.label }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *LLMEstimator) Estimate(ctx context.Context, req Request) (float64, error) {
	body := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "user", Content: e.buildPrompt(req)},
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("consensus: %s API error: %s", e.label, string(raw))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return 0, err
	}
	if len(chat.Choices) == 0 {
		return 0, fmt.Errorf("consensus: no response from %s", e.label)
	}

	return parseEstimate(chat.Choices[0].Message.Content)
}

func (e *LLMEstimator) buildPrompt(req Request) string {
	return fmt.Sprintf(`You are an expert prediction-market analyst.
Market: %s
Question: %s
Outcome token: %s
Current market odds for this outcome: %.2f
A large trader just placed a %s order on this outcome.

Estimate the true probability that this outcome resolves YES.
Answer in JSON ONLY:
{
  "probability": 0.0-1.0,
  "reasoning": "max 2 sentences"
}`,
		req.Market.Slug,
		req.Title,
		req.Market.Outcome,
		req.CurrentOdds,
		req.Side,
	)
}

// parseEstimate extracts the JSON object from the model's reply. Models often
// wrap JSON in prose, so scan for the outermost braces.
func parseEstimate(content string) (float64, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return 0, fmt.Errorf("consensus: no JSON found in response")
	}

	var result struct {
		Probability float64 `json:"probability"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return 0, fmt.Errorf("consensus: failed to parse estimate: %w", err)
	}
	if result.Probability < 0 || result.Probability > 1 {
		return 0, fmt.Errorf("consensus: estimate %.4f out of range", result.Probability)
	}
	return result.Probability, nil
}
