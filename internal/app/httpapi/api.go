// Package httpapi exposes the REST handlers and translates HTTP requests into
// voting and results service calls.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bramvdmeulen/tegenstem/internal/app/results"
	"github.com/bramvdmeulen/tegenstem/internal/app/voting"
	"github.com/bramvdmeulen/tegenstem/internal/domain"
	"github.com/bramvdmeulen/tegenstem/internal/platform/antifraud"
	"github.com/bramvdmeulen/tegenstem/internal/platform/metrics"
)

// ballotTokenCookie carries the durable ballot token; one year matches the
// intended lifetime of the duplicate mark.
const (
	ballotTokenCookie = "ballot-token"
	ballotTokenMaxAge = 365 * 24 * 60 * 60
)

// VotingService is the slice of the voting service the handlers consume.
type VotingService interface {
	Submit(ctx context.Context, req voting.SubmitRequest) (voting.SubmitResult, error)
	HasVoted(ctx context.Context, networkAddress, deviceSignature, existingToken string) (bool, error)
	ListBallots(ctx context.Context) ([]voting.BallotDetail, error)
	AdminInsert(ctx context.Context, req voting.SubmitRequest) (domain.VoteID, error)
	DeleteBallot(ctx context.Context, id domain.VoteID) error
	Reset(ctx context.Context) error
	CreateParty(ctx context.Context, party domain.Party, candidates []domain.Candidate) (domain.Party, error)
	UpdateAppearance(ctx context.Context, id domain.PartyID, color, logoURL string) error
	ListParties(ctx context.Context) ([]domain.Party, error)
	ListCandidates(ctx context.Context, partyID domain.PartyID) ([]domain.Candidate, error)
}

type ResultsService interface {
	Published(ctx context.Context) (domain.Results, error)
	Compute(ctx context.Context) (domain.Results, error)
}

type SettingsStore interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// API bundles the HTTP handlers with their services and logger.
type API struct {
	votes      VotingService
	results    ResultsService
	settings   SettingsStore
	adminToken string
	logger     *slog.Logger
}

func New(votes VotingService, results ResultsService, settings SettingsStore, adminToken string, logger *slog.Logger) *API {
	return &API{
		votes:      votes,
		results:    results,
		settings:   settings,
		adminToken: adminToken,
		logger:     logger,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	// Routes stay centralized so tests and alternative servers can reuse them.
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/votes", a.handleVotes)
	mux.HandleFunc("/api/votes/check", a.handleVoteCheck)
	mux.HandleFunc("/api/results", a.handleResults)
	mux.HandleFunc("/api/parties", a.handleParties)
	mux.HandleFunc("/api/candidates", a.handleCandidates)
	mux.HandleFunc("/api/admin/votes", a.requireAdmin(a.handleAdminVotes))
	mux.HandleFunc("/api/admin/settings", a.requireAdmin(a.handleAdminSettings))
	mux.HandleFunc("/api/admin/results", a.requireAdmin(a.handleAdminResults))
	mux.HandleFunc("/api/admin/parties", a.requireAdmin(a.handleAdminParties))
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type ballotRequest struct {
	ForPartyID         string `json:"for_party_id"`
	AgainstPartyID     string `json:"against_party_id"`
	ForCandidateID     string `json:"for_candidate_id,omitempty"`
	AgainstCandidateID string `json:"against_candidate_id,omitempty"`
	DeviceSignature    string `json:"device_signature,omitempty"`
	ChallengeProof     string `json:"challenge_token,omitempty"`
}

func (a *API) handleVotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req ballotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveBallotRequest("invalid_payload")
		a.logger.Warn("invalid ballot payload", "err", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	submit := voting.SubmitRequest{
		ForPartyID:         domain.PartyID(req.ForPartyID),
		AgainstPartyID:     domain.PartyID(req.AgainstPartyID),
		ForCandidateID:     optionalCandidate(req.ForCandidateID),
		AgainstCandidateID: optionalCandidate(req.AgainstCandidateID),
		NetworkAddress:     clientAddress(r),
		DeviceSignature:    req.DeviceSignature,
		ExistingToken:      ballotToken(r),
		ChallengeProof:     req.ChallengeProof,
	}

	result, err := a.votes.Submit(r.Context(), submit)
	if err != nil {
		status := statusFromError(err)
		metrics.ObserveBallotRequest(status)
		a.logger.Warn("ballot rejected", "err", err, "for", req.ForPartyID, "against", req.AgainstPartyID, "status", status)
		respondError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ballotTokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   ballotTokenMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	metrics.ObserveBallotRequest("accepted")
	metrics.ObserveBallotDuration(time.Since(start).Seconds())
	respondJSON(w, http.StatusCreated, map[string]string{
		"status": "accepted",
		"token":  result.Token,
	})
	a.logger.Info("ballot accepted", "vote", string(result.VoteID))
}

func (a *API) handleVoteCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	voted, err := a.votes.HasVoted(r.Context(), clientAddress(r), r.URL.Query().Get("fingerprint"), ballotToken(r))
	if err != nil {
		a.logger.Error("vote check failed", "err", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"has_voted": voted})
}

func (a *API) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := a.results.Published(r.Context())
	if err != nil {
		if errors.Is(err, results.ErrResultsHidden) {
			metrics.ObserveResultsRead("hidden")
			// No tally data leaks while the toggle is off, not even zeroes.
			respondJSON(w, http.StatusForbidden, map[string]string{"error": "results_hidden"})
			return
		}
		metrics.ObserveResultsRead("error")
		a.logger.Error("results read failed", "err", err)
		respondError(w, err)
		return
	}

	metrics.ObserveResultsRead("ok")
	respondJSON(w, http.StatusOK, res)
}

func (a *API) handleParties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parties, err := a.votes.ListParties(r.Context())
	if err != nil {
		a.logger.Error("party list failed", "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parties)
}

func (a *API) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	partyID := r.URL.Query().Get("party_id")
	if partyID == "" {
		http.Error(w, "party_id is required", http.StatusBadRequest)
		return
	}

	candidates, err := a.votes.ListCandidates(r.Context(), domain.PartyID(partyID))
	if err != nil {
		a.logger.Error("candidate list failed", "err", err, "party", partyID)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

func optionalCandidate(id string) *domain.CandidateID {
	if id == "" {
		return nil
	}
	cid := domain.CandidateID(id)
	return &cid
}

func ballotToken(r *http.Request) string {
	cookie, err := r.Cookie(ballotTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clientAddress resolves the caller's network address from proxy headers
// first, then the socket. The resolver downstream handles the empty case.
func clientAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, httpStatus(err), map[string]string{
		"error":  statusFromError(err),
		"detail": err.Error(),
	})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, voting.ErrInvalidSelection), errors.Is(err, voting.ErrPartyInvalid):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrChallengeFailed):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, antifraud.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, voting.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// statusFromError is the machine-readable rejection reason; callers branch on
// it to decide whether to fix the selection, retry the challenge, or give up.
func statusFromError(err error) string {
	switch {
	case errors.Is(err, voting.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, voting.ErrInvalidSelection), errors.Is(err, voting.ErrPartyInvalid):
		return "invalid_selection"
	case errors.Is(err, voting.ErrChallengeFailed):
		return "challenge_failed"
	case errors.Is(err, antifraud.ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, voting.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
