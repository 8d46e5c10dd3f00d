package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/promptlift/internal/api"
	"github.com/kalambet/promptlift/internal/config"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/pipeline"
	"github.com/kalambet/promptlift/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"success":false,"error":"not found","type":"not_found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

func withoutColor(t *testing.T) {
	t.Helper()
	old := noColor
	noColor = true
	t.Cleanup(func() { noColor = old })
}

var ctx = context.Background()

func TestClassifyCommand(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/classify": `{"success":true,"domain":"technical","confidence":0.24,"scores":{"technical":2.4,"creative":0,"business":1.2}}`,
	})

	var out bytes.Buffer
	if err := runClassify(ctx, ts.client(), &out, "Fix this Python function"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "technical (confidence 0.24)\n") {
		t.Errorf("output = %q", got)
	}
	if strings.Index(got, "technical    2.4") > strings.Index(got, "business     1.2") {
		t.Errorf("scores not sorted descending: %q", got)
	}
	if strings.Contains(got, "creative") {
		t.Errorf("zero scores should be hidden: %q", got)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["prompt"] != "Fix this Python function" {
		t.Errorf("body.prompt = %q", body["prompt"])
	}
}

func TestScoreCommand(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/score": `{"success":true,"score":16,"breakdown":{"clarity":6,"structure":0,"completeness":10,"specificity":0}}`,
	})

	var out bytes.Buffer
	if err := runScore(ctx, ts.client(), &out, "I need help"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Score: 16/100") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "completeness 10") {
		t.Errorf("output = %q", out.String())
	}
}

func TestQuestionsCommand_ClassifiesFirst(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/classify":  `{"success":true,"domain":"fitness","confidence":0.3,"scores":{"fitness":3}}`,
		"POST /api/questions": `{"success":true,"questions":[{"id":"f1","text":"What is your goal?","answers":[{"label":"Strength","value":"strength"}]}]}`,
	})

	var out bytes.Buffer
	if err := runQuestions(ctx, ts.client(), &out, "add a strength session", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ts.requests))
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[1].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["domain"] != "fitness" {
		t.Errorf("questions request domain = %q, want fitness", body["domain"])
	}
	if !strings.Contains(out.String(), "Domain: fitness") {
		t.Errorf("output missing classified domain: %q", out.String())
	}
	if !strings.Contains(out.String(), "[f1] What is your goal?") || !strings.Contains(out.String(), "f1=strength") {
		t.Errorf("output = %q", out.String())
	}
}

func TestQuestionsCommand_ExplicitDomain(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/questions": `{"success":true,"questions":[]}`,
	})

	var out bytes.Buffer
	if err := runQuestions(ctx, ts.client(), &out, "Help me plan", "general"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ts.requests) != 1 || ts.requests[0].Path != "/api/questions" {
		t.Errorf("requests = %+v, want a single questions call", ts.requests)
	}
}

func TestImproveCommand(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/improve": `{"success":true,"interactionId":"ix-1","improved":"Rewrite this Python function so it sorts in place.","domain":"technical",` +
			`"score":{"before":20,"after":55,"improvement":35},"questions":[{"id":"t1","text":"Which language?","answers":[]}],` +
			`"contextAware":false,"isRefinement":true,"refinementApplied":true,"timestamp":"2026-01-01T00:00:00Z"}`,
	})

	req := improveRequest{
		Prompt:            "Fix this Python function",
		Platform:          "claude",
		ConversationID:    "c1",
		RefinementAnswers: convo.Answers{"t2": "debug"},
	}
	var out bytes.Buffer
	if err := runImprove(ctx, ts.client(), &out, req, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "Rewrite this Python function so it sorts in place.\n") {
		t.Errorf("output = %q", got)
	}
	for _, want := range []string{"Score: 20 → 55 (+35)", "Mode: refinement", "Questions: t1"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["conversationId"] != "c1" {
		t.Errorf("body.conversationId = %v", body["conversationId"])
	}
	answers, _ := body["refinementAnswers"].(map[string]any)
	if answers["t2"] != "debug" {
		t.Errorf("body.refinementAnswers = %v", body["refinementAnswers"])
	}
	if _, ok := body["domain"]; ok {
		t.Error("empty domain should be omitted")
	}
}

func TestImproveCommand_JSON(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/improve": `{"success":true,"improved":"Better prompt here","domain":"general"}`,
	})

	var out bytes.Buffer
	if err := runImprove(ctx, ts.client(), &out, improveRequest{Prompt: "x", Platform: "claude"}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got["improved"] != "Better prompt here" {
		t.Errorf("improved = %v", got["improved"])
	}
}

func TestImproveCommand_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"error":"completion service rate limited","type":"upstream_rate_limited"}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	err := runImprove(ctx, client, &bytes.Buffer{}, improveRequest{Prompt: "x", Platform: "claude"}, false)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"429", "upstream_rate_limited", "rate limited"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err.Error(), want)
		}
	}
}

func TestContextCommands(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/context/chat 1":    `{"success":true,"found":true,"context":{"conversationTopic":"sorting","keyDetails":["python"]}}`,
		"DELETE /api/context/chat 1": `{"success":true,"deleted":true}`,
		"POST /api/context":          `{"success":true,"conversationId":"chat 1","savedAt":"2026-01-01T00:00:00Z"}`,
	})
	client := ts.client()

	if err := runContextSave(ctx, client, "chat 1", []byte(`{"conversationTopic":"sorting"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	var saveBody struct {
		ConversationID string        `json:"conversationId"`
		Context        convo.Context `json:"context"`
	}
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &saveBody); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if saveBody.ConversationID != "chat 1" || saveBody.Context.ConversationTopic != "sorting" {
		t.Errorf("save body = %+v", saveBody)
	}

	var out bytes.Buffer
	if err := runContextShow(ctx, client, &out, "chat 1"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if ts.requests[1].Path != "/api/context/chat%201" {
		t.Errorf("path = %q, want escaped id", ts.requests[1].Path)
	}
	if !strings.Contains(out.String(), `"conversationTopic": "sorting"`) {
		t.Errorf("output = %q", out.String())
	}

	if err := runContextDelete(ctx, client, "chat 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ts.requests[2].Method != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", ts.requests[2].Method)
	}
}

func TestContextShow_NotFound(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	err := runContextShow(ctx, ts.client(), &bytes.Buffer{}, "missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestContextSave_InvalidJSON(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	if err := runContextSave(ctx, ts.client(), "c1", []byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
	if len(ts.requests) != 0 {
		t.Errorf("invalid JSON should not reach the server, got %d requests", len(ts.requests))
	}
}

func TestHistoryCommand(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /api/history": `{"success":true,"interactions":[{"id":"0123456789abcdef","createdAt":"2026-01-01T00:00:00Z","platform":"claude",` +
			`"domain":"technical","mode":"standard","original":"Fix this\nPython function","improved":"better","scoreBefore":20,"scoreAfter":55}]}`,
	})

	var out bytes.Buffer
	if err := runHistory(ctx, ts.client(), &out, 5, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.requests[0].Path != "/api/history?limit=5" {
		t.Errorf("path = %q", ts.requests[0].Path)
	}
	got := out.String()
	if !strings.HasPrefix(got, "01234567  ") {
		t.Errorf("id not shortened: %q", got)
	}
	if !strings.Contains(got, " 20 →  55  Fix this Python function") {
		t.Errorf("output = %q", got)
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/history": `{"success":true,"interactions":[]}`,
	})

	var out bytes.Buffer
	if err := runHistory(ctx, ts.client(), &out, 20, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "No improvements recorded.\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestHistoryCommand_Conversation(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/history": `{"success":true,"interactions":[]}`,
	})

	if err := runHistory(ctx, ts.client(), &bytes.Buffer{}, 20, "chat 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.requests[0].Path != "/api/history?conversationId=chat+1" {
		t.Errorf("path = %q", ts.requests[0].Path)
	}
}

func TestHistoryShowCommand(t *testing.T) {
	withoutColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /api/history/ix-1": `{"success":true,"interaction":{"id":"ix-1","createdAt":"2026-01-01T00:00:00Z","conversationId":"c1",` +
			`"platform":"claude","domain":"technical","mode":"refinement","original":"Fix this","improved":"Fix the sort bug.","scoreBefore":10,"scoreAfter":40}}`,
	})

	var out bytes.Buffer
	if err := runHistoryShow(ctx, ts.client(), &out, "ix-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Conversation: c1", "Domain: technical (refinement)", "Score: 10 → 40", "Improved:\nFix the sort bug."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}

	err := runHistoryShow(ctx, ts.client(), &bytes.Buffer{}, "missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestClient_ServerStopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_NonEnvelopeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	resp, err := client.get(ctx, "/api/history")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil || err.Error() != "server returned 502: bad gateway" {
		t.Errorf("err = %v", err)
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "test message"); got != "test message" {
		t.Errorf("result = %q, want %q", got, "test message")
	}

	noColor = false
	if got := colorize(colorGreen, "test message"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", got)
	}
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		count, limit int
		want         string
	}{
		{5, 100, "5"},
		{0, 100, "0"},
		{100, 100, "100+"},
		{150, 100, "150+"},
	}
	for _, tt := range tests {
		got := countLabel(tt.count, tt.limit)
		if got != tt.want {
			t.Errorf("countLabel(%d, %d) = %q, want %q", tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview("  a\n b  ", 10); got != "a b" {
		t.Errorf("preview = %q", got)
	}
	if got := preview("héllo wörld", 5); got != "héllo..." {
		t.Errorf("preview = %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello", "k", "v")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON log line, got %q", buf.String())
	}
	if line["msg"] != "hello" || line["k"] != "v" {
		t.Errorf("line = %v", line)
	}

	buf.Reset()
	logger = newLogger(config.LogConfig{Level: "bogus", Format: "text"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestContextStoreSelection(t *testing.T) {
	store, err := openStore(config.StorageConfig{Backend: config.BackendMemory})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()

	if _, ok := contextStore(config.StorageConfig{Backend: config.BackendMemory}, store).(*convo.MemoryStore); !ok {
		t.Error("memory backend should use the in-process store")
	}
	if _, ok := contextStore(config.StorageConfig{Backend: config.BackendSQLite}, store).(*storage.ContextStore); !ok {
		t.Error("sqlite backend should use the database store")
	}
}

func TestGatewayOptions(t *testing.T) {
	opts := gatewayOptions(config.GatewayConfig{
		Provider:    "gemini",
		APIKey:      "k",
		Model:       "m",
		Timeout:     3 * time.Second,
		MaxRetries:  2,
		Temperature: 0.2,
		MaxTokens:   100,
	})
	if opts.Provider != "gemini" || opts.APIKey != "k" || opts.Model != "m" || opts.Timeout != 3*time.Second ||
		opts.MaxRetries != 2 || opts.Temperature == nil || *opts.Temperature != 0.2 || opts.MaxTokens != 100 {
		t.Errorf("options = %+v", opts)
	}
}

type stubGateway struct{}

func (stubGateway) Complete(ctx context.Context, system, user string) (string, error) {
	return "You are a senior Python engineer. Fix the function and explain the bug.", nil
}

// TestImprove_AgainstAPI runs the CLI against the real router.
func TestImprove_AgainstAPI(t *testing.T) {
	withoutColor(t)
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(api.Deps{
		Improver: pipeline.NewImprover(nil, nil, stubGateway{}, pipeline.WithRecorder(store)),
		Contexts: convo.NewMemoryStore(),
		History:  store,
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()
	client := &apiClient{baseURL: srv.URL, httpClient: srv.Client()}

	var out bytes.Buffer
	if err := runImprove(ctx, client, &out, improveRequest{Prompt: "Fix this Python function", Platform: "claude"}, false); err != nil {
		t.Fatalf("improve: %v", err)
	}
	if !strings.Contains(out.String(), "Domain: technical") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := runHistory(ctx, client, &out, 10, ""); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), "Fix this Python function") {
		t.Errorf("history output = %q", out.String())
	}

	err = runImprove(ctx, client, &bytes.Buffer{}, improveRequest{Prompt: "Fix this", Platform: "discord"}, false)
	if err == nil || !strings.Contains(err.Error(), "invalid_input") {
		t.Errorf("err = %v, want invalid_input", err)
	}
}
