package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/example/go-bpe/internal/server"
	"github.com/example/go-bpe/internal/testutil"
	"github.com/example/go-bpe/internal/tokenizer"
)

// stubModel implements server.Model for tests. Every word becomes one id equal
// to its length; onTokenize, when set, runs inside each tokenize call.
type stubModel struct {
	onTokenize   func()
	parallelUsed bool
}

func (s *stubModel) TokenizeText(doc string) []tokenizer.TokenID {
	if s.onTokenize != nil {
		s.onTokenize()
	}
	ids := []tokenizer.TokenID{}
	for _, w := range strings.Fields(doc) {
		ids = append(ids, tokenizer.TokenID(len(w)))
	}
	return ids
}

func (s *stubModel) TokenizeTextParallel(doc string, _ int) []tokenizer.TokenID {
	s.parallelUsed = true
	return s.TokenizeText(doc)
}

func (s *stubModel) TokenString(id tokenizer.TokenID) string {
	if id == tokenizer.UNK {
		return tokenizer.UNKString
	}
	return strings.Repeat("x", int(id))
}

func (s *stubModel) Detokenize(ids []tokenizer.TokenID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = s.TokenString(id)
	}
	return strings.Join(parts, " ")
}

func (s *stubModel) VocabSize() int { return 7 }
func (s *stubModel) NumMerges() int { return 3 }

func newTestHandler(model server.Model) http.Handler {
	return server.NewHandler(model, server.WithLogger(testutil.DiscardLogger()))
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth_Returns200WithStatusOK(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("want status=ok, got %q", body["status"])
	}

	if _, ok := body["version"]; !ok {
		t.Error("want version field in response")
	}
}

// ---------------------------------------------------------------------------
// GET /info
// ---------------------------------------------------------------------------

func TestInfo_ReportsModelSize(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body struct {
		VocabSize int `json:"vocab_size"`
		Merges    int `json:"merges"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.VocabSize != 7 || body.Merges != 3 {
		t.Errorf("got %+v; want vocab_size=7 merges=3", body)
	}
}

// ---------------------------------------------------------------------------
// POST /tokenize
// ---------------------------------------------------------------------------

type tokenizeBody struct {
	IDs    []tokenizer.TokenID `json:"ids"`
	Tokens []string            `json:"tokens"`
}

func TestTokenize_ReturnsIDsAndTokens(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := post(h, "/tokenize", `{"text":"ab cde"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want Content-Type application/json, got %q", ct)
	}

	var body tokenizeBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if !slices.Equal(body.IDs, []tokenizer.TokenID{2, 3}) {
		t.Errorf("ids = %v; want [2 3]", body.IDs)
	}

	if !slices.Equal(body.Tokens, []string{"xx", "xxx"}) {
		t.Errorf("tokens = %v; want [xx xxx]", body.Tokens)
	}
}

func TestTokenize_EmptyTextReturnsEmptyArray(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := post(h, "/tokenize", `{"text":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), `"ids":[]`) {
		t.Errorf("want empty ids array, got %s", rec.Body.String())
	}
}

func TestTokenize_ParallelFlagSelectsParallelPath(t *testing.T) {
	model := &stubModel{}
	h := newTestHandler(model)

	rec := post(h, "/tokenize", `{"text":"a b","parallel":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if !model.parallelUsed {
		t.Error("parallel request did not use TokenizeTextParallel")
	}
}

func TestTokenize_ReturnsMissingBodyAs400(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tokenize", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}

	var body map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	if err != nil {
		t.Fatalf("decode error body: %v", err)
	}

	if body["error"] == "" {
		t.Error("want non-empty error field")
	}
}

func TestTokenize_WrongMethodReturns405(t *testing.T) {
	h := newTestHandler(&stubModel{})

	for _, path := range []string{"/tokenize", "/decode"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: want 405, got %d", path, rec.Code)
		}
	}
}

// ---------------------------------------------------------------------------
// POST /decode
// ---------------------------------------------------------------------------

func TestDecode_MapsIDsToTokensAndText(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := post(h, "/decode", `{"ids":[1,4294967295,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Tokens []string `json:"tokens"`
		Text   string   `json:"text"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if !slices.Equal(body.Tokens, []string{"x", "UNK", "xx"}) {
		t.Errorf("tokens = %v; want [x UNK xx]", body.Tokens)
	}

	if body.Text != "x UNK xx" {
		t.Errorf("text = %q; want %q", body.Text, "x UNK xx")
	}
}

func TestDecode_InvalidJSONReturns400(t *testing.T) {
	h := newTestHandler(&stubModel{})

	rec := post(h, "/decode", `{"ids":["a"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// End to end with a trained model
// ---------------------------------------------------------------------------

func TestTokenizeThenDecode_TrainedModel(t *testing.T) {
	tok := tokenizer.Train(slices.Values([]string{"low lower lowest", "new newer newest"}), 20,
		tokenizer.WithLogger(testutil.DiscardLogger()))
	h := newTestHandler(tok)

	rec := post(h, "/tokenize", `{"text":"Lower, NEWEST!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("tokenize: want 200, got %d", rec.Code)
	}

	var tb tokenizeBody
	if err := json.NewDecoder(rec.Body).Decode(&tb); err != nil {
		t.Fatalf("decode tokenize body: %v", err)
	}

	if !slices.Equal(tb.IDs, tok.TokenizeText("Lower, NEWEST!")) {
		t.Errorf("ids = %v; want %v", tb.IDs, tok.TokenizeText("Lower, NEWEST!"))
	}

	payload, err := json.Marshal(map[string]any{"ids": tb.IDs})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	rec = post(h, "/decode", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("decode: want 200, got %d", rec.Code)
	}

	var db struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&db); err != nil {
		t.Fatalf("decode decode body: %v", err)
	}

	if db.Text != "lower newest" {
		t.Errorf("text = %q; want %q", db.Text, "lower newest")
	}
}
