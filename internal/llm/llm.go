// Package llm scores free-text answers and mock interviews with an
// OpenAI-compatible model. Scoring never fails a submission: any oracle
// problem degrades to a zero score with explanatory feedback, and the
// submission is persisted either way.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pranavkale/placement-cell/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// AnswerEval is the oracle's assessment of one free-text answer. Degraded
// marks evaluations where the oracle was unavailable or returned garbage; it
// is logged but never persisted, so a degraded zero is indistinguishable in
// storage from a genuine zero.
type AnswerEval struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Degraded bool   `json:"-"`
}

// InterviewEval is the oracle's assessment of a full interview transcript.
type InterviewEval struct {
	Communication int    `json:"communication_score"`
	Confidence    int    `json:"confidence_score"`
	Clarity       int    `json:"clarity_score"`
	Relevance     int    `json:"relevance_score"`
	Feedback      string `json:"feedback"`
	Degraded      bool   `json:"-"`
}

// Overall derives the overall interview score from the four sub-scores.
func (e InterviewEval) Overall() int {
	return model.InterviewOverall(e.Communication, e.Confidence, e.Clarity, e.Relevance)
}

// Client wraps an OpenAI-compatible API client. A client without an API key
// is disabled and degrades every evaluation.
type Client struct {
	api     *openai.Client
	model   string
	enabled bool
}

// New creates a new scoring client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		enabled: apiKey != "",
	}
}

// Enabled reports whether the oracle is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// EvaluateAnswer scores a free-text answer on a 0 to 100 scale. It never
// returns an error; failures degrade to a zero score with a reason in the
// feedback.
func (c *Client) EvaluateAnswer(ctx context.Context, question, answer string) AnswerEval {
	if !c.enabled {
		return AnswerEval{
			Feedback: "Automated evaluation is not configured. The answer has been recorded for manual review.",
			Degraded: true,
		}
	}

	raw, err := c.complete(ctx, buildAnswerPrompt(question, answer))
	if err != nil {
		slog.Error("answer evaluation failed", "error", err)
		return AnswerEval{
			Feedback: "Automated evaluation was unavailable. The answer has been recorded for manual review.",
			Degraded: true,
		}
	}

	var eval AnswerEval
	if err := json.Unmarshal([]byte(stripFences(raw)), &eval); err != nil {
		slog.Error("unparseable answer evaluation", "error", err, "raw", raw)
		return AnswerEval{
			Feedback: "Automated evaluation returned an unreadable result. The answer has been recorded for manual review.",
			Degraded: true,
		}
	}
	eval.Score = clamp(eval.Score)
	if eval.Feedback == "" {
		eval.Feedback = "No feedback was produced for this answer."
	}
	return eval
}

// EvaluateInterview scores an interview transcript across four dimensions,
// each 0 to 100. Like EvaluateAnswer, it never returns an error.
func (c *Client) EvaluateInterview(ctx context.Context, transcript string) InterviewEval {
	if !c.enabled {
		return InterviewEval{
			Feedback: "Automated evaluation is not configured. The interview has been recorded for manual review.",
			Degraded: true,
		}
	}

	raw, err := c.complete(ctx, buildInterviewPrompt(transcript))
	if err != nil {
		slog.Error("interview evaluation failed", "error", err)
		return InterviewEval{
			Feedback: "Automated evaluation was unavailable. The interview has been recorded for manual review.",
			Degraded: true,
		}
	}

	var eval InterviewEval
	if err := json.Unmarshal([]byte(stripFences(raw)), &eval); err != nil {
		slog.Error("unparseable interview evaluation", "error", err, "raw", raw)
		return InterviewEval{
			Feedback: "Automated evaluation returned an unreadable result. The interview has been recorded for manual review.",
			Degraded: true,
		}
	}
	eval.Communication = clamp(eval.Communication)
	eval.Confidence = clamp(eval.Confidence)
	eval.Clarity = clamp(eval.Clarity)
	eval.Relevance = clamp(eval.Relevance)
	if eval.Feedback == "" {
		eval.Feedback = "No feedback was produced for this interview."
	}
	return eval
}

func (c *Client) complete(ctx context.Context, systemPrompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return raw, nil
}

func buildAnswerPrompt(question, answer string) string {
	var sb strings.Builder
	sb.WriteString("You are evaluating a placement candidate's written answer.\n\n")
	sb.WriteString("QUESTION: " + question + "\n\n")
	sb.WriteString("ANSWER: " + answer + "\n\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Judge relevance, clarity, depth, and communication quality.\n")
	sb.WriteString("- Score from 0 to 100, where 100 is an excellent, complete answer.\n")
	sb.WriteString("- Keep the feedback to two or three sentences a student can act on.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"score": <number 0 to 100>, "feedback": "<brief feedback>"}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildInterviewPrompt(transcript string) string {
	var sb strings.Builder
	sb.WriteString("You are assessing a mock placement interview from its transcript.\n\n")
	sb.WriteString("TRANSCRIPT:\n" + transcript + "\n\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Score each dimension from 0 to 100: communication, confidence, clarity, relevance.\n")
	sb.WriteString("- Base the scores only on what the candidate actually said.\n")
	sb.WriteString("- Give overall feedback of three or four sentences covering strengths and weaknesses.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"communication_score": <0-100>, "confidence_score": <0-100>, "clarity_score": <0-100>, "relevance_score": <0-100>, "feedback": "<overall feedback>"}`)
	sb.WriteString("\n")
	return sb.String()
}

// stripFences removes a markdown code fence some models wrap around JSON
// despite the response-format request.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
