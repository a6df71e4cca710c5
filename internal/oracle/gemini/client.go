package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"interview/internal/models"
	"interview/internal/oracle"
	"interview/internal/oracle/prompts"
)

// Client is a Gemini-backed scoring oracle.
type Client struct {
	client  *genai.Client
	config  *Config
	prompts *prompts.PromptManager
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &oracle.ProviderError{
			Provider: "gemini",
			Code:     oracle.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	pm, err := prompts.NewPromptManager()
	if err != nil {
		return nil, err
	}

	return &Client{
		client:  client,
		config:  config,
		prompts: pm,
	}, nil
}

func (c *Client) NextQuestion(ctx context.Context, questionNumber int, difficulty string, profile oracle.CandidateProfile) (string, error) {
	name := profile.Name
	if name == "" {
		name = "the candidate"
	}
	prompt, err := c.prompts.Build(prompts.Question, map[string]string{
		"CandidateName":  name,
		"QuestionNumber": strconv.Itoa(questionNumber),
		"Difficulty":     difficulty,
	})
	if err != nil {
		return "", err
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) Score(ctx context.Context, question, answer string) (int, error) {
	prompt, err := c.prompts.Build(prompts.Score, map[string]string{
		"Question": question,
		"Answer":   answer,
	})
	if err != nil {
		return 0, err
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return 0, err
	}

	score, err := parseScore(text)
	if err != nil {
		return 0, &oracle.ProviderError{
			Provider: "gemini",
			Code:     oracle.ErrCodeInvalidInput,
			Message:  "Failed to parse evaluation response",
			Err:      err,
		}
	}
	return score, nil
}

func (c *Client) Summarize(ctx context.Context, results []oracle.SlotResult, totalScore int) (string, error) {
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "Q: %s (%s)\nA: %s\nScore: %d/%d\n\n", r.Question, r.Difficulty, r.Answer, r.Score, models.MaxSlotScore)
	}

	prompt, err := c.prompts.Build(prompts.Summary, map[string]string{
		"TotalScore": strconv.Itoa(totalScore),
		"Results":    sb.String(),
	})
	if err != nil {
		return "", err
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) ProviderName() string {
	return "gemini"
}

// generate runs one content-generation round trip and extracts the text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", &oracle.ProviderError{
			Provider: "gemini",
			Code:     oracle.ErrCodeServiceDown,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}
	if result == nil {
		return "", &oracle.ProviderError{
			Provider: "gemini",
			Code:     oracle.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return "", &oracle.ProviderError{
			Provider: "gemini",
			Code:     oracle.ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	if text == "" {
		return "", &oracle.ProviderError{
			Provider: "gemini",
			Code:     oracle.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}
	return text, nil
}

// parseScore pulls the {"score": n, ...} object out of a model response that
// may carry extra prose around the JSON.
func parseScore(text string) (int, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return 0, fmt.Errorf("no JSON object in response")
	}

	var eval struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &eval); err != nil {
		return 0, err
	}

	score := int(math.Round(eval.Score))
	if score < 0 {
		score = 0
	}
	if score > models.MaxSlotScore {
		score = models.MaxSlotScore
	}
	return score, nil
}
