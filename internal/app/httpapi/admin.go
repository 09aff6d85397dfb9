package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bramvdmeulen/tegenstem/internal/app/voting"
	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// requireAdmin guards the administrative surface with the configured bearer
// token. Authentication lives here, outside the engine itself.
func (a *API) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if a.adminToken == "" || token != a.adminToken {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (a *API) handleAdminVotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.adminListVotes(w, r)
	case http.MethodPost:
		a.adminInsertVote(w, r)
	case http.MethodDelete:
		a.adminDeleteVotes(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) adminListVotes(w http.ResponseWriter, r *http.Request) {
	ballots, err := a.votes.ListBallots(r.Context())
	if err != nil {
		a.logger.Error("admin ballot list failed", "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"votes": ballots})
}

func (a *API) adminInsertVote(w http.ResponseWriter, r *http.Request) {
	var req ballotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	id, err := a.votes.AdminInsert(r.Context(), voting.SubmitRequest{
		ForPartyID:         domain.PartyID(req.ForPartyID),
		AgainstPartyID:     domain.PartyID(req.AgainstPartyID),
		ForCandidateID:     optionalCandidate(req.ForCandidateID),
		AgainstCandidateID: optionalCandidate(req.AgainstCandidateID),
	})
	if err != nil {
		a.logger.Warn("admin insert rejected", "err", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
	a.logger.Info("ballot inserted by admin", "vote", string(id))
}

func (a *API) adminDeleteVotes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("reset_all") == "true" {
		if err := a.votes.Reset(r.Context()); err != nil {
			a.logger.Error("ballot reset failed", "err", err)
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
		a.logger.Info("all ballots deleted by admin")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id or reset_all=true is required", http.StatusBadRequest)
		return
	}

	if err := a.votes.DeleteBallot(r.Context(), domain.VoteID(id)); err != nil {
		a.logger.Warn("ballot delete failed", "err", err, "vote", id)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	a.logger.Info("ballot deleted by admin", "vote", id)
}

type settingRequest struct {
	Key   string `json:"setting_key"`
	Value string `json:"setting_value"`
}

func (a *API) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		values, err := a.settings.All(r.Context())
		if err != nil {
			a.logger.Error("settings read failed", "err", err)
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, values)
	case http.MethodPut:
		var req settingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if err := a.settings.Set(r.Context(), req.Key, req.Value); err != nil {
			a.logger.Error("setting update failed", "err", err, "key", req.Key)
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		a.logger.Info("setting updated", "key", req.Key, "value", req.Value)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdminResults bypasses the results_visible gate so an admin can watch
// tallies while the public endpoint is still dark.
func (a *API) handleAdminResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := a.results.Compute(r.Context())
	if err != nil {
		a.logger.Error("admin results failed", "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type partySetupRequest struct {
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation"`
	Color        string   `json:"color"`
	LogoURL      string   `json:"logo_url"`
	DisplayOrder int      `json:"display_order"`
	Candidates   []string `json:"candidates"`
}

type partyAppearanceRequest struct {
	PartyID string `json:"party_id"`
	Color   string `json:"color"`
	LogoURL string `json:"logo_url"`
}

func (a *API) handleAdminParties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.adminCreateParty(w, r)
	case http.MethodPatch:
		a.adminUpdateAppearance(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) adminCreateParty(w http.ResponseWriter, r *http.Request) {
	var req partySetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	candidates := make([]domain.Candidate, len(req.Candidates))
	for i, name := range req.Candidates {
		candidates[i] = domain.Candidate{Name: name, Position: i + 1}
	}

	party, err := a.votes.CreateParty(r.Context(), domain.Party{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		Color:        req.Color,
		LogoURL:      req.LogoURL,
		DisplayOrder: req.DisplayOrder,
	}, candidates)
	if err != nil {
		a.logger.Warn("party setup rejected", "err", err, "abbreviation", req.Abbreviation)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, party)
	a.logger.Info("party created", "party", string(party.ID), "abbreviation", party.Abbreviation)
}

func (a *API) adminUpdateAppearance(w http.ResponseWriter, r *http.Request) {
	var req partyAppearanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PartyID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := a.votes.UpdateAppearance(r.Context(), domain.PartyID(req.PartyID), req.Color, req.LogoURL); err != nil {
		a.logger.Warn("appearance update failed", "err", err, "party", req.PartyID)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
