// Package judge runs student code against a Judge0 execution service. When no
// API key is configured the client stays in simulation mode: submissions are
// stored for manual review without executing anything.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Status classifies an execution outcome.
type Status string

const (
	StatusAccepted     Status = "accepted"
	StatusCompileError Status = "compile_error"
	StatusRuntimeError Status = "runtime_error"
	StatusWrongOutput  Status = "wrong_output"
	StatusTransport    Status = "transport_error"
	StatusSimulated    Status = "simulated"
)

// languageIDs maps supported language names to Judge0 language ids.
var languageIDs = map[string]int{
	"python": 71,
	"c":      50,
	"cpp":    54,
	"java":   62,
	"sql":    82,
}

// SupportedLanguage reports whether the language can be sent for execution.
func SupportedLanguage(name string) bool {
	_, ok := languageIDs[name]
	return ok
}

// Result is the outcome of one execution. Transport failures are folded into
// the result rather than returned as errors so a flaky execution service
// never blocks a submission.
type Result struct {
	Status    Status
	Stdout    string
	Stderr    string
	Simulated bool
}

// Client talks to a Judge0-compatible REST endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	host       string
}

// New creates a Judge0 client. An empty apiKey puts the client in simulation
// mode.
func New(baseURL, apiKey, host string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		host:       host,
	}
}

// Configured reports whether real execution is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type submissionRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type submissionResponse struct {
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Message string `json:"message"`
	Status  struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Run executes source with the given stdin and returns the outcome. In
// simulation mode it returns a simulated acceptance without contacting the
// service.
func (c *Client) Run(ctx context.Context, source, language, stdin string) Result {
	if !c.Configured() {
		return Result{
			Status:    StatusSimulated,
			Stdout:    "Code submitted successfully. Execution is simulated in this environment.",
			Simulated: true,
		}
	}
	langID, ok := languageIDs[language]
	if !ok {
		return Result{Status: StatusTransport, Stderr: fmt.Sprintf("unsupported language %q", language)}
	}

	body, err := json.Marshal(submissionRequest{
		SourceCode: source,
		LanguageID: langID,
		Stdin:      stdin,
	})
	if err != nil {
		return Result{Status: StatusTransport, Stderr: err.Error()}
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=true&fields=stdout,stderr,status_id,status,message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Status: StatusTransport, Stderr: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("code execution request failed", "error", err)
		return Result{Status: StatusTransport, Stderr: "execution service unreachable"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("code execution service error", "status", resp.StatusCode)
		return Result{Status: StatusTransport, Stderr: fmt.Sprintf("execution service returned status %d", resp.StatusCode)}
	}

	var sub submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return Result{Status: StatusTransport, Stderr: "malformed execution service response"}
	}
	return classify(sub)
}

// classify maps Judge0 status ids onto execution outcomes. 3 is Accepted,
// 6 is a compilation error, 7 through 12 are runtime errors.
func classify(sub submissionResponse) Result {
	r := Result{Stdout: sub.Stdout, Stderr: sub.Stderr}
	switch {
	case sub.Status.ID == 3:
		r.Status = StatusAccepted
	case sub.Status.ID == 6:
		r.Status = StatusCompileError
		if r.Stderr == "" {
			r.Stderr = sub.Message
		}
	case sub.Status.ID >= 7 && sub.Status.ID <= 12:
		r.Status = StatusRuntimeError
		if r.Stderr == "" {
			r.Stderr = sub.Message
		}
	default:
		r.Status = StatusWrongOutput
		if r.Stderr == "" {
			r.Stderr = sub.Status.Description
		}
	}
	return r
}

// Passed compares produced output against an expected value, ignoring
// leading and trailing whitespace.
func Passed(stdout, expected string) bool {
	return strings.TrimSpace(stdout) == strings.TrimSpace(expected)
}
