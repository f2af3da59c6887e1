package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle"
	oraclellm "github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle/llm"
	providerllm "github.com/upsanskritpratibhakhoj/shlokachakra/pkg/provider/llm"
	"github.com/upsanskritpratibhakhoj/shlokachakra/pkg/provider/llm/mock"
)

const validReply = `{
  "valid": true,
  "resolvedVerse": {"text": "यदा यदा हि धर्मस्य ग्लानिर्भवति भारत", "nextChar": "म"},
  "continuationVerse": {"text": "मनोजवं मारुततुल्यवेगम्", "nextChar": "य"}
}`

func TestResolve_ValidVerdict(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &providerllm.CompletionResponse{Content: validReply},
	}
	a := oraclellm.New(p)

	resp, err := a.Resolve(context.Background(), oracle.Request{
		Text:              "यदा यदा हि धर्मस्य",
		RequiredStartChar: "य",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("Valid = false, reason %q; want true", resp.Reason)
	}
	if resp.ResolvedVerse == nil || resp.ResolvedVerse.NextChar != "म" {
		t.Errorf("ResolvedVerse = %+v, want nextChar म", resp.ResolvedVerse)
	}
	if resp.ContinuationVerse == nil || resp.ContinuationVerse.NextChar != "य" {
		t.Errorf("ContinuationVerse = %+v, want nextChar य", resp.ContinuationVerse)
	}
}

func TestResolve_MarkdownFencedReply(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &providerllm.CompletionResponse{
			Content: "```json\n" + validReply + "\n```",
		},
	}
	a := oraclellm.New(p)

	resp, err := a.Resolve(context.Background(), oracle.Request{Text: "यदा", RequiredStartChar: "य"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resp.Valid {
		t.Error("fenced JSON reply not parsed as valid")
	}
}

func TestResolve_UnparseableReplyIsRejection(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &providerllm.CompletionResponse{Content: "I am sorry, I cannot help."},
	}
	a := oraclellm.New(p)

	resp, err := a.Resolve(context.Background(), oracle.Request{Text: "x", RequiredStartChar: "य"})
	if err != nil {
		t.Fatalf("unparseable reply should not surface as an error, got %v", err)
	}
	if resp.Valid {
		t.Error("unparseable reply parsed as valid")
	}
	if resp.Reason == "" {
		t.Error("rejection carries no reason")
	}
}

func TestResolve_ValidWithoutResolvedVerseIsRejection(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &providerllm.CompletionResponse{Content: `{"valid": true}`},
	}
	a := oraclellm.New(p)

	resp, err := a.Resolve(context.Background(), oracle.Request{Text: "x", RequiredStartChar: "य"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resp.Valid {
		t.Error("hollow valid verdict accepted")
	}
}

func TestResolve_TransportError(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("connection refused")}
	a := oraclellm.New(p)

	if _, err := a.Resolve(context.Background(), oracle.Request{Text: "x", RequiredStartChar: "य"}); err == nil {
		t.Error("transport error swallowed, want non-nil error")
	}
}

func TestResolve_RequestShape(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &providerllm.CompletionResponse{Content: validReply},
	}
	a := oraclellm.New(p)

	history := make([]oracle.HistoryEntry, 10)
	for i := range history {
		history[i] = oracle.HistoryEntry{Speaker: "user", Content: "पद"}
	}
	history[9].Content = "अन्तिम"

	_, err := a.Resolve(context.Background(), oracle.Request{
		Text:              "यदा यदा",
		RequiredStartChar: "य",
		RecentHistory:     history,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("Complete called %d times, want 1", len(calls))
	}
	req := calls[0].Req
	if req.SystemPrompt == "" {
		t.Error("system prompt not set")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want one user message", req.Messages)
	}
	content := req.Messages[0].Content
	if !strings.Contains(content, "य") {
		t.Error("required character missing from user message")
	}
	if !strings.Contains(content, "अन्तिम") {
		t.Error("recent history tail missing from user message")
	}
	// Only the last six history entries are forwarded; with ten identical
	// entries the JSON must not contain more than six.
	if n := strings.Count(content, `"speaker"`); n != 6 {
		t.Errorf("history entries forwarded = %d, want 6", n)
	}
}
