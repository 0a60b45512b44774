package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Model is the trained tokenizer the handler serves.
type Model interface {
	TokenizeText(doc string) []tokenizer.TokenID
	TokenizeTextParallel(doc string, workers int) []tokenizer.TokenID
	TokenString(id tokenizer.TokenID) string
	Detokenize(ids []tokenizer.TokenID) string
	VocabSize() int
	NumMerges() int
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   64 << 10,
		workers:        4,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /tokenize.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent tokenization calls.
// Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	model Model
	opts  options
	sem   chan struct{} // semaphore for worker pool
	log   *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /info,
// POST /tokenize and POST /decode.
func NewHandler(model Model, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		model: model,
		opts:  opts,
		log:   opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/info", h.handleInfo)
	mux.HandleFunc("/tokenize", h.handleTokenize)
	mux.HandleFunc("/decode", h.handleDecode)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type infoResponse struct {
	VocabSize int `json:"vocab_size"`
	Merges    int `json:"merges"`
}

func (h *handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		VocabSize: h.model.VocabSize(),
		Merges:    h.model.NumMerges(),
	})
}

type tokenizeRequest struct {
	Text     string `json:"text"`
	Parallel bool   `json:"parallel"`
}

type tokenizeResponse struct {
	IDs    []tokenizer.TokenID `json:"ids"`
	Tokens []string            `json:"tokens"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	// The slot is held until tokenization returns, even after a timeout, so
	// abandoned calls still count against the worker limit.
	ids, err := runWithContext(ctx, func() []tokenizer.TokenID {
		defer release()
		if req.Parallel {
			return h.model.TokenizeTextParallel(req.Text, 0)
		}
		return h.model.TokenizeText(req.Text)
	})
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.log.WarnContext(r.Context(), "tokenize timed out",
			slog.Int("text_len", len(req.Text)),
			slog.Bool("parallel", req.Parallel),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusGatewayTimeout, "tokenization timed out")
		return
	}

	h.log.InfoContext(r.Context(), "tokenize complete",
		slog.Int("text_len", len(req.Text)),
		slog.Bool("parallel", req.Parallel),
		slog.Int("tokens", len(ids)),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, tokenizeResponse{IDs: ids, Tokens: h.tokenStrings(ids)})
}

type decodeRequest struct {
	IDs []tokenizer.TokenID `json:"ids"`
}

type decodeResponse struct {
	Tokens []string `json:"tokens"`
	Text   string   `json:"text"`
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	h.log.DebugContext(r.Context(), "decode", slog.Int("ids", len(req.IDs)))

	writeJSON(w, http.StatusOK, decodeResponse{
		Tokens: h.tokenStrings(req.IDs),
		Text:   h.model.Detokenize(req.IDs),
	})
}

func (h *handler) tokenStrings(ids []tokenizer.TokenID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = h.model.TokenString(id)
	}
	return out
}

// acquire takes a worker slot, honouring cancellation while waiting.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.sem == nil {
		return func() {}, true
	}
	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }, true
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return nil, false
	}
}

// runWithContext runs fn in its own goroutine and stops waiting when ctx ends.
// The abandoned call runs to completion and its result is discarded.
func runWithContext[T any](ctx context.Context, fn func() T) (T, error) {
	done := make(chan T, 1)
	go func() { done <- fn() }()

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	model           Model
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, model Model) *Server {
	shutdown := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdown <= 0 {
		shutdown = 30 * time.Second
	}
	return &Server{
		cfg:             cfg,
		model:           model,
		logger:          slog.Default(),
		shutdownTimeout: shutdown,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.model == nil {
		return errors.New("server: no tokenizer model")
	}

	handlerOpts := []Option{
		WithWorkers(s.cfg.Server.Workers),
		WithLogger(s.logger),
	}
	if s.cfg.Server.MaxTextBytes > 0 {
		handlerOpts = append(handlerOpts, WithMaxTextBytes(s.cfg.Server.MaxTextBytes))
	}
	if s.cfg.Server.RequestTimeout > 0 {
		handlerOpts = append(handlerOpts,
			WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second))
	}

	h := NewHandler(s.model, handlerOpts...)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
