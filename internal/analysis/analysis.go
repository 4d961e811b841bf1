// Package analysis asks a language model for a first read of a complaint:
// sentiment, a suggested reply and a priority. Submission never waits on it
// for longer than a timeout and never fails because of it.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quality-desk/internal/complaints"
	"quality-desk/pkg/logger"

	"github.com/sashabaranov/go-openai"
)

var ErrMalformed = errors.New("analysis: malformed model answer")

// Result is the analysis of one complaint description. Empty Sentiment and
// SuggestedResponse mean the analysis was skipped.
type Result struct {
	Sentiment         string              `json:"sentiment,omitempty"`
	SuggestedResponse string              `json:"suggested_response,omitempty"`
	Priority          complaints.Priority `json:"priority"`
}

// Fallback is returned whenever the collaborator cannot answer.
var Fallback = Result{Priority: complaints.PriorityMedium}

type Analyzer interface {
	Analyze(ctx context.Context, description string) (Result, error)
}

// Completer is the subset of *openai.Client used here.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAIAnalyzer struct {
	client Completer
	model  string
}

func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{client: openai.NewClient(apiKey), model: model}
}

func NewAnalyzerWithClient(client Completer, model string) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{client: client, model: model}
}

const systemPrompt = `Eres analista de calidad de un hospital. Recibes el texto de un reclamo de un paciente.
Responde solo con un objeto JSON con estas claves:
"sentiment": "positive", "neutral" o "negative";
"suggested_response": una respuesta breve y empática en español para el paciente;
"priority": "Low", "Medium", "High" o "Critical" según la gravedad clínica y el riesgo para el paciente.`

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, description string) (Result, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Result{}, errors.New("analysis: empty description")
	}
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		MaxTokens:      300,
		Temperature:    0.2,
	}
	res, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if len(res.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: no choices", ErrMalformed)
	}
	return parseAnswer(res.Choices[0].Message.Content)
}

type answer struct {
	Sentiment         string `json:"sentiment"`
	SuggestedResponse string `json:"suggested_response"`
	Priority          string `json:"priority"`
}

func parseAnswer(content string) (Result, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var ans answer
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &ans); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	p, ok := complaints.ParsePriority(ans.Priority)
	if !ok {
		return Result{}, fmt.Errorf("%w: priority %q", ErrMalformed, ans.Priority)
	}
	sentiment := strings.ToLower(strings.TrimSpace(ans.Sentiment))
	switch sentiment {
	case "positive", "neutral", "negative":
	default:
		sentiment = ""
	}
	return Result{
		Sentiment:         sentiment,
		SuggestedResponse: strings.TrimSpace(ans.SuggestedResponse),
		Priority:          p,
	}, nil
}

// Degrade runs a with a deadline and returns Fallback on timeout, error or a
// nil analyzer. It returns by the deadline even if a ignores ctx.
func Degrade(ctx context.Context, a Analyzer, description string, timeout time.Duration) Result {
	if a == nil {
		return Fallback
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := a.Analyze(ctx, description)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			logger.From(ctx).Warn("complaint analysis skipped", "err", o.err)
			return Fallback
		}
		return o.res
	case <-ctx.Done():
		logger.From(ctx).Warn("complaint analysis timed out", "timeout", timeout)
		return Fallback
	}
}
