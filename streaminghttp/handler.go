package streaminghttp

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"

	"timeweathermcp/internal/dispatch"
	"timeweathermcp/internal/logctx"
)

var _ http.Handler = (*Handler)(nil)

var (
	ndjsonMediaType = contenttype.NewMediaType("application/x-ndjson")
	jsonMediaType   = contenttype.NewMediaType("application/json")

	// Preference order for Accept negotiation. NDJSON first: it is the
	// native framing of this transport.
	responseMediaTypes = []contenttype.MediaType{ndjsonMediaType, jsonMediaType}
)

// maxBodyBytes bounds a single request body, mirroring the line transport's
// per-message cap.
const maxBodyBytes = 1 << 20

// Handler serves the streaming HTTP transport for a Dispatcher.
type Handler struct {
	mux *http.ServeMux
	d   *dispatch.Dispatcher
	log *slog.Logger

	cors bool
}

// Option configures a Handler.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	cors       bool
	healthPath string
}

// WithLogger sets the slog logger used by the handler. If not provided, the
// default logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithoutCORS disables the permissive wildcard CORS headers. Use this when a
// reverse proxy owns the CORS policy.
func WithoutCORS() Option {
	return func(c *config) { c.cors = false }
}

// WithHealthPath overrides the liveness endpoint path (default "/health").
func WithHealthPath(path string) Option {
	return func(c *config) {
		if path != "" {
			c.healthPath = path
		}
	}
}

// New constructs a Handler around the given Dispatcher.
func New(d *dispatch.Dispatcher, opts ...Option) *Handler {
	cfg := config{logger: slog.Default(), cors: true, healthPath: "/health"}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Handler{
		d:    d,
		log:  slog.New(logctx.Handler{Handler: cfg.logger.Handler()}),
		cors: cfg.cors,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", h.handlePost)
	mux.HandleFunc("POST /mcp", h.handlePost)
	mux.HandleFunc(fmt.Sprintf("GET %s", cfg.healthPath), h.handleHealth)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.cors {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	h.mux.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})))
}

// handlePost reads one JSON-RPC request body, dispatches it, and writes the
// response as a single NDJSON line. The line is flushed immediately so the
// first byte reaches the client without waiting for the handler to return.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.InfoContext(ctx, "http.post.start")

	mediaType := ndjsonMediaType
	if mt, _, err := contenttype.GetAcceptableMediaType(r, responseMediaTypes); err == nil {
		mediaType = mt
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.log.WarnContext(ctx, "http.post.body.fail", slog.String("err", err.Error()))
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp := h.d.HandleRaw(ctx, body)
	b, err := json.Marshal(resp)
	if err != nil {
		h.log.ErrorContext(ctx, "http.post.marshal.fail", slog.String("err", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(b, '\n')); err != nil {
		// Peer went away; the in-flight work is abandoned, nothing to clean up.
		h.log.InfoContext(ctx, "http.post.write.fail", slog.String("err", err.Error()))
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.log.InfoContext(ctx, "http.post.ok", slog.Duration("dur", time.Since(start)))
}

// handleHealth answers the liveness probe. It never touches the dispatcher.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}` + "\n"))
}
