package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"milk-ledger/internal/app"

	"github.com/google/uuid"
)

// ── Pending proposal store ────────────────────────────────────────────────────

// pendingProposal is stored server-side until the operator confirms or cancels it.
type pendingProposal struct {
	Entry     app.ProposedEntry
	Operator  string
	CreatedAt time.Time
}

const pendingTTL = 15 * time.Minute

var (
	errProposalNotFound  = errors.New("token not found or expired")
	errProposalForbidden = errors.New("proposal belongs to another session")
)

// pendingStore is a thread-safe in-memory store with TTL expiry.
type pendingStore struct {
	mu        sync.Mutex
	proposals map[string]pendingProposal
	now       func() time.Time
}

func newPendingStore() *pendingStore {
	return &pendingStore{proposals: make(map[string]pendingProposal), now: time.Now}
}

func (s *pendingStore) put(token string, p pendingProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[token] = p
}

// take removes and returns the proposal for token when it belongs to operator.
// Expired proposals are never returned; another operator's proposal is left in place.
func (s *pendingStore) take(token, operator string) (pendingProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[token]
	if !ok {
		return pendingProposal{}, errProposalNotFound
	}
	if s.now().Sub(p.CreatedAt) > pendingTTL {
		delete(s.proposals, token)
		return pendingProposal{}, errProposalNotFound
	}
	if p.Operator != operator {
		return pendingProposal{}, errProposalForbidden
	}
	delete(s.proposals, token)
	return p, nil
}

func (s *pendingStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, p := range s.proposals {
		if s.now().Sub(p.CreatedAt) > pendingTTL {
			delete(s.proposals, token)
		}
	}
}

// startPurge starts a background goroutine that evicts expired entries every 5 minutes.
func (s *pendingStore) startPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purgeExpired()
			}
		}
	}()
}

// ── Handlers ──────────────────────────────────────────────────────────────────

type interpretResponse struct {
	Token           string             `json:"token,omitempty"`
	Proposal        *app.ProposedEntry `json:"proposal,omitempty"`
	Clarification   string             `json:"clarification,omitempty"`
	IsClarification bool               `json:"is_clarification"`
}

// assistantInterpret handles POST /api/assistant/interpret with body {"note": "..."}.
// A proposal is held under a one-time token; nothing is recorded until it is confirmed.
func (h *Handler) assistantInterpret(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.InterpretNote(r.Context(), req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result.IsClarification {
		writeJSON(w, interpretResponse{Clarification: result.ClarificationMessage, IsClarification: true})
		return
	}

	operator := ""
	if claims := authFromContext(r.Context()); claims != nil {
		operator = claims.Username
	}
	token := uuid.NewString()
	h.pending.put(token, pendingProposal{Entry: *result.Proposal, Operator: operator, CreatedAt: time.Now()})
	writeJSON(w, interpretResponse{Token: token, Proposal: result.Proposal})
}

// assistantConfirm handles POST /api/assistant/confirm with body
// {"token": "...", "action": "confirm"|"cancel"}.
func (h *Handler) assistantConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string `json:"token"`
		Action string `json:"action"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeError(w, r, "token is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Action != "confirm" && req.Action != "cancel" {
		writeError(w, r, "action must be 'confirm' or 'cancel'", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	proposal, err := h.pending.take(req.Token, claims.Username)
	switch {
	case errors.Is(err, errProposalForbidden):
		writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
		return
	case err != nil:
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	}

	if req.Action == "cancel" {
		writeJSON(w, map[string]any{"ok": true, "message": "Cancelled."})
		return
	}

	result, err := h.svc.CommitProposal(r.Context(), proposal.Entry)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "result": result})
}
