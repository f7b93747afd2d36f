// Package server exposes the decision pipeline over an OpenAI-compatible
// HTTP surface: every chat completion is tokenized, scanned, redacted
// and routed before it is forwarded upstream.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gatewise-ai/gatewise/pkg/audit"
	"github.com/gatewise-ai/gatewise/pkg/config"
	"github.com/gatewise-ai/gatewise/pkg/executor"
	"github.com/gatewise-ai/gatewise/pkg/gateway"
	"github.com/gatewise-ai/gatewise/pkg/history"
	"github.com/gatewise-ai/gatewise/pkg/models"
)

// modeHeader lets a client select the compliance mode per request; the
// configured mode applies when absent.
const modeHeader = "X-Gatewise-Mode"

// Server is the Gatewise HTTP gateway.
type Server struct {
	cfg      *config.Config
	pipeline *gateway.Pipeline
	history  *history.Store
	auditor  *audit.Logger
	exec     *executor.Client
	mux      *http.ServeMux
}

// New creates a Server wired with all dependencies. history and auditor
// may be nil; the decision pipeline and executor are required.
func New(cfg *config.Config, p *gateway.Pipeline, h *history.Store, a *audit.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		history:  h,
		auditor:  a,
		exec:     executor.New(cfg.Provider),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("/v1/gateway/savings", s.handleSavings)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the gateway with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("gatewise listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body.Close()

	var req models.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	promptIdx := lastUserMessage(req.Messages)
	if promptIdx < 0 {
		writeJSONError(w, http.StatusBadRequest, "no user message in request")
		return
	}

	var mode models.ComplianceMode
	if h := r.Header.Get(modeHeader); h != "" {
		mode, err = models.ParseComplianceMode(h)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rec, err := s.pipeline.HandleRequest(r.Context(), gateway.Request{
		Text:  req.Messages[promptIdx].Content,
		Model: req.Model,
		Mode:  mode,
	})
	if err != nil {
		// Fail closed: nothing leaves the trust boundary unscanned.
		log.Printf("decision pipeline error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "decision pipeline failed; request not forwarded")
		return
	}

	log.Printf("decision %s: tier=%s tokens=%d pii=%d redacted=%v savings=$%.5f",
		rec.RequestID, rec.ChosenTier, rec.Tokens, rec.PIIFindingCount, rec.Redacted, rec.Savings)
	if rec.CostWarning {
		log.Printf("decision %s: estimated cost $%.5f exceeds warn_cost $%.5f",
			rec.RequestID, rec.Costs[rec.ChosenTier], s.cfg.WarnCost)
	}

	s.recordDecision(r.Context(), rec)
	s.writeDecisionHeaders(w, rec)

	// Forward the decided request: chosen tier's model, forwardable text.
	req.Model = rec.ChosenModel
	req.Messages[promptIdx].Content = rec.ForwardedText
	upstreamBody, err := json.Marshal(req)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode upstream request")
		return
	}

	if req.Stream {
		s.forwardStreaming(w, r, upstreamBody, rec)
		return
	}

	result, err := s.exec.Invoke(r.Context(), upstreamBody)
	if err != nil {
		s.writeExecutionError(w, rec, err)
		return
	}

	for k, vals := range result.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)
}

func (s *Server) forwardStreaming(w http.ResponseWriter, r *http.Request, body []byte, rec models.DecisionRecord) {
	resp, err := s.exec.InvokeStream(r.Context(), body)
	if err != nil {
		s.writeExecutionError(w, rec, err)
		return
	}
	defer resp.Body.Close()

	if err := relaySSE(w, resp); err != nil {
		log.Printf("streaming error for %s: %v", rec.RequestID, err)
	}
}

// relaySSE copies an SSE stream to the client, flushing at event
// boundaries.
func relaySSE(w http.ResponseWriter, resp *http.Response) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support flushing")
	}

	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintf(w, "%s\n", line)
		if line == "" {
			flusher.Flush()
		}
	}
	flusher.Flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.pipeline.Ledger().Snapshot())
}

// recordDecision persists the decision and, for audit-only forwards with
// findings, logs the compliance exception.
func (s *Server) recordDecision(ctx context.Context, rec models.DecisionRecord) {
	if s.history != nil {
		if err := s.history.Record(ctx, rec); err != nil {
			log.Printf("history record error: %v", err)
		}
	}

	if s.auditor != nil && rec.AuditFlagged {
		event := models.ComplianceEvent{
			RequestID:    rec.RequestID,
			Model:        rec.Model,
			ChosenTier:   rec.ChosenTier,
			Mode:         string(rec.ComplianceMode),
			Categories:   rec.PIICategories,
			FindingCount: rec.PIIFindingCount,
			CreatedAt:    rec.CreatedAt,
		}
		go func() {
			if err := s.auditor.Log(context.Background(), event); err != nil {
				log.Printf("audit log error: %v", err)
			}
		}()
	}
}

func (s *Server) writeDecisionHeaders(w http.ResponseWriter, rec models.DecisionRecord) {
	h := w.Header()
	h.Set("X-Gatewise-Request-ID", rec.RequestID)
	h.Set("X-Gatewise-Tier", rec.ChosenTier)
	h.Set("X-Gatewise-Tokens", strconv.Itoa(rec.Tokens))
	h.Set("X-Gatewise-Redacted", strconv.FormatBool(rec.Redacted))
	h.Set("X-Gatewise-Savings", strconv.FormatFloat(rec.SessionSavingsAfter, 'f', 5, 64))
	if rec.AuditFlagged {
		h.Set("X-Gatewise-Audit", "flagged")
	}
}

// writeExecutionError reports execution failures without masking them.
// A missing credential is the caller's problem to fix, not something to
// paper over with simulated output.
func (s *Server) writeExecutionError(w http.ResponseWriter, rec models.DecisionRecord, err error) {
	if errors.Is(err, executor.ErrCredentialMissing) {
		writeJSONError(w, http.StatusUnauthorized,
			fmt.Sprintf("decision %s authorized but not executed: %v", rec.RequestID, err))
		return
	}
	writeJSONError(w, http.StatusBadGateway, err.Error())
}

func lastUserMessage(messages []models.ChatMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return i
		}
	}
	return -1
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"gatewise_error","code":%d}}`, message, code)
}
