package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quality-desk/internal/complaints"

	"github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	content string
	err     error
	delay   time.Duration
	got     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
	}}, nil
}

func TestOpenAIAnalyzer_ParsesAnswer(t *testing.T) {
	fc := &fakeCompleter{content: "```json\n{\"sentiment\":\"Negative\",\"suggested_response\":\" Lamentamos la demora. \",\"priority\":\"high\"}\n```"}
	a := NewAnalyzerWithClient(fc, "gpt-4o-mini")

	res, err := a.Analyze(context.Background(), "Esperé seis horas en urgencias")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Sentiment != "negative" || res.Priority != complaints.PriorityHigh || res.SuggestedResponse != "Lamentamos la demora." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fc.got.Model != "gpt-4o-mini" || len(fc.got.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", fc.got)
	}
}

func TestOpenAIAnalyzer_Malformed(t *testing.T) {
	for _, content := range []string{"not json", `{"priority":"Urgent"}`} {
		a := NewAnalyzerWithClient(&fakeCompleter{content: content}, "m")
		if _, err := a.Analyze(context.Background(), "x"); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%q: expected ErrMalformed, got %v", content, err)
		}
	}
}

func TestDegrade_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		a    Analyzer
	}{
		{"nil analyzer", nil},
		{"transport error", NewAnalyzerWithClient(&fakeCompleter{err: errors.New("502")}, "m")},
		{"malformed", NewAnalyzerWithClient(&fakeCompleter{content: "{"}, "m")},
		{"timeout", NewAnalyzerWithClient(&fakeCompleter{content: `{"priority":"Low"}`, delay: 200 * time.Millisecond}, "m")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			res := Degrade(context.Background(), tt.a, "texto", 20*time.Millisecond)
			if res != Fallback {
				t.Fatalf("expected fallback, got %+v", res)
			}
			if time.Since(start) > 150*time.Millisecond {
				t.Fatalf("degrade must return by the deadline")
			}
		})
	}
}

func TestDegrade_PassesThroughAnswer(t *testing.T) {
	a := NewAnalyzerWithClient(&fakeCompleter{content: `{"sentiment":"neutral","suggested_response":"ok","priority":"Critical"}`}, "m")
	res := Degrade(context.Background(), a, "texto", time.Second)
	if res.Priority != complaints.PriorityCritical || res.Sentiment != "neutral" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
