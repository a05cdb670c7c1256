package llm

import (
	"context"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"score": 50}`, `{"score": 50}`},
		{"json fence", "```json\n{\"score\": 50}\n```", `{"score": 50}`},
		{"bare fence", "```\n{\"score\": 50}\n```", `{"score": 50}`},
		{"surrounding whitespace", "  {\"score\": 50}\n", `{"score": 50}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0}, {0, 0}, {50, 50}, {100, 100}, {150, 100},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDisabledClientDegradesAnswerEval(t *testing.T) {
	c := New("", "", "test-model")
	if c.Enabled() {
		t.Fatal("client without API key must be disabled")
	}

	eval := c.EvaluateAnswer(context.Background(), "Q", "A")
	if !eval.Degraded {
		t.Error("disabled client must degrade")
	}
	if eval.Score != 0 {
		t.Errorf("degraded score must be 0, got %d", eval.Score)
	}
	if eval.Feedback == "" {
		t.Error("degraded evaluation must explain itself in feedback")
	}
}

func TestDisabledClientDegradesInterviewEval(t *testing.T) {
	c := New("", "", "test-model")

	eval := c.EvaluateInterview(context.Background(), "transcript")
	if !eval.Degraded {
		t.Error("disabled client must degrade")
	}
	if eval.Overall() != 0 {
		t.Errorf("degraded overall must be 0, got %d", eval.Overall())
	}
	if eval.Feedback == "" {
		t.Error("degraded evaluation must explain itself in feedback")
	}
}

func TestInterviewOverallTruncates(t *testing.T) {
	tests := []struct {
		name                                         string
		communication, confidence, clarity, relevance int
		want                                         int
	}{
		{"even mean", 80, 80, 80, 80, 80},
		{"truncating mean", 75, 80, 80, 80, 78}, // 315/4 = 78.75
		{"all zero", 0, 0, 0, 0, 0},
		{"remainder three", 1, 1, 1, 0, 0}, // 3/4 = 0.75
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := InterviewEval{
				Communication: tt.communication,
				Confidence:    tt.confidence,
				Clarity:       tt.clarity,
				Relevance:     tt.relevance,
			}
			if got := eval.Overall(); got != tt.want {
				t.Errorf("Overall() = %d, want %d", got, tt.want)
			}
		})
	}
}
