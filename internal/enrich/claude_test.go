package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

func sampleFindings(n int) []findings.Finding {
	fs := make([]findings.Finding, n)
	for i := range fs {
		controlID := fmt.Sprintf("Button%d", i+1)
		fs[i] = findings.Finding{
			ID:           findings.NewID(apptree.SurfaceCanvasApp, controlID, "missing-accessible-label"),
			Severity:     findings.SeverityHigh,
			Surface:      apptree.SurfaceCanvasApp,
			ControlID:    controlID,
			IssueType:    "missing-accessible-label",
			SuggestedFix: "original fix",
		}
	}
	return fs
}

func sampleTree() *apptree.Tree {
	return &apptree.Tree{Surface: apptree.SurfaceCanvasApp, AppName: "Demo"}
}

// batchIDs pulls the finding ids out of the prompt a request carried.
func batchIDs(t *testing.T, r *http.Request) []string {
	t.Helper()
	var req anthropicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	content := req.Messages[0].Content
	idx := strings.LastIndex(content, "---\n")
	var batch []findings.Finding
	if err := json.Unmarshal([]byte(content[idx+len("---\n"):]), &batch); err != nil {
		t.Fatalf("unmarshal prompt findings: %v", err)
	}
	ids := make([]string, len(batch))
	for i, f := range batch {
		ids[i] = f.ID
	}
	return ids
}

func respondWith(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	}
	json.NewEncoder(w).Encode(resp)
}

func testEnricher(url string) *ClaudeEnricher {
	c := NewClaudeEnricher("test-key", "test-model", 2, nil)
	c.endpoint = url
	c.httpClient = &http.Client{Timeout: 5 * time.Second}
	return c
}

func TestIdentity(t *testing.T) {
	fs := sampleFindings(3)
	out, err := Identity{}.Enrich(context.Background(), sampleTree(), fs)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[0].SuggestedFix != "original fix" {
		t.Errorf("identity must not change findings: %+v", out)
	}
}

func TestEnrich_RewritesFixesOnly(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var suggestions []suggestion
		for _, id := range batchIDs(t, r) {
			suggestions = append(suggestions, suggestion{ID: id, SuggestedFix: "better fix for " + id})
		}
		text, _ := json.Marshal(suggestions)
		respondWith(w, string(text))
	}))
	defer srv.Close()

	fs := sampleFindings(5)
	out, err := testEnricher(srv.URL).Enrich(context.Background(), sampleTree(), fs)
	if err != nil {
		t.Fatal(err)
	}

	if requests != 3 {
		t.Errorf("5 findings with batch size 2 should take 3 requests, got %d", requests)
	}
	if len(out) != len(fs) {
		t.Fatalf("cardinality changed: %d != %d", len(out), len(fs))
	}
	for i := range out {
		if out[i].ID != fs[i].ID || out[i].ControlID != fs[i].ControlID {
			t.Errorf("finding %d identity changed", i)
		}
		if out[i].SuggestedFix != "better fix for "+fs[i].ID {
			t.Errorf("finding %d fix not applied: %q", i, out[i].SuggestedFix)
		}
	}
	if fs[0].SuggestedFix != "original fix" {
		t.Error("input slice must not be mutated")
	}
}

func TestEnrich_UnknownIDDegradesBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWith(w, `[{"id":"not-a-real-id","suggested_fix":"nonsense"}]`)
	}))
	defer srv.Close()

	fs := sampleFindings(2)
	out, err := testEnricher(srv.URL).Enrich(context.Background(), sampleTree(), fs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		if out[i].SuggestedFix != "original fix" {
			t.Errorf("degraded batch must keep original fix, got %q", out[i].SuggestedFix)
		}
	}
}

func TestEnrich_APIFailureDegradesBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"invalid_request_error","message":"bad"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	fs := sampleFindings(2)
	out, err := testEnricher(srv.URL).Enrich(context.Background(), sampleTree(), fs)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].SuggestedFix != "original fix" {
		t.Errorf("API failure must leave findings untouched: %+v", out)
	}
}

func TestEnrich_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWith(w, "[]")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs := sampleFindings(4)
	out, err := testEnricher(srv.URL).Enrich(ctx, sampleTree(), fs)
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(out) != 4 {
		t.Errorf("findings must still come back whole, got %d", len(out))
	}
}

func TestEnrich_CodeBlockReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := batchIDs(t, r)
		respondWith(w, "```json\n[{\"id\":\""+ids[0]+"\",\"suggested_fix\":\"fenced fix\"}]\n```")
	}))
	defer srv.Close()

	fs := sampleFindings(1)
	out, err := testEnricher(srv.URL).Enrich(context.Background(), sampleTree(), fs)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].SuggestedFix != "fenced fix" {
		t.Errorf("fenced JSON should parse, got %q", out[0].SuggestedFix)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&RetryableError{StatusCode: 529}) {
		t.Error("RetryableError must be retryable")
	}
	if IsRetryable(fmt.Errorf("plain failure")) {
		t.Error("plain errors must not be retryable")
	}
}

func TestBackoffGrows(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		d := Backoff(attempt)
		floor := time.Duration(1<<uint(attempt)) * time.Second
		if d < floor || d > floor+floor/2 {
			t.Errorf("attempt %d backoff %s outside [%s, %s]", attempt, d, floor, floor+floor/2)
		}
	}
}
