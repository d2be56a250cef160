package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

const defaultEndpoint = "https://api.anthropic.com/v1/messages"

// ClaudeEnricher asks the Anthropic Messages API for remediation text.
// Findings are sent in batches; a batch that fails after retries keeps its
// original suggested fixes rather than failing the scan.
type ClaudeEnricher struct {
	apiKey     string
	model      string
	endpoint   string
	batchSize  int
	httpClient *http.Client
	log        *slog.Logger
}

func NewClaudeEnricher(apiKey, model string, batchSize int, log *slog.Logger) *ClaudeEnricher {
	if batchSize <= 0 {
		batchSize = 20
	}
	if log == nil {
		log = slog.Default()
	}
	return &ClaudeEnricher{
		apiKey:    apiKey,
		model:     model,
		endpoint:  defaultEndpoint,
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: log,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// suggestion is one element of the model's JSON reply.
type suggestion struct {
	ID           string `json:"id"`
	SuggestedFix string `json:"suggested_fix"`
}

// Enrich rewrites suggested fixes batch by batch. The returned slice always
// holds the same findings in the same order; only SuggestedFix may change.
// Context cancellation abandons the remaining batches.
func (c *ClaudeEnricher) Enrich(ctx context.Context, tree *apptree.Tree, fs []findings.Finding) ([]findings.Finding, error) {
	if len(fs) == 0 {
		return fs, nil
	}
	out := make([]findings.Finding, len(fs))
	copy(out, fs)

	for start := 0; start < len(out); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := min(start+c.batchSize, len(out))
		batch := out[start:end]

		fixes, err := c.enrichBatch(ctx, tree, batch)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			c.log.Warn("enrichment batch degraded", "start", start, "size", len(batch), "error", err)
			continue
		}
		for i := range batch {
			if fix, ok := fixes[batch[i].ID]; ok && strings.TrimSpace(fix) != "" {
				batch[i].SuggestedFix = fix
			}
		}
	}
	return out, nil
}

func (c *ClaudeEnricher) enrichBatch(ctx context.Context, tree *apptree.Tree, batch []findings.Finding) (map[string]string, error) {
	prompt, err := buildPrompt(tree, batch)
	if err != nil {
		return nil, err
	}

	var text string
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		text, lastErr = c.complete(ctx, prompt)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		c.log.Warn("retryable enrichment error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	var suggestions []suggestion
	if err := json.Unmarshal([]byte(stripCodeBlock(text)), &suggestions); err != nil {
		return nil, fmt.Errorf("parse suggestions json: %w (raw: %s)", err, truncate(text, 200))
	}

	known := make(map[string]bool, len(batch))
	for _, f := range batch {
		known[f.ID] = true
	}
	fixes := make(map[string]string, len(suggestions))
	for _, s := range suggestions {
		if !known[s.ID] {
			// The model invented or mangled an id; drop the whole reply
			// rather than guess at alignment.
			return nil, fmt.Errorf("suggestion references unknown finding id %q", s.ID)
		}
		fixes[s.ID] = s.SuggestedFix
	}
	return fixes, nil
}

func (c *ClaudeEnricher) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("claude api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude api status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}
	return apiResp.Content[0].Text, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases resources.
func (c *ClaudeEnricher) Close() {
	c.httpClient.CloseIdleConnections()
}
