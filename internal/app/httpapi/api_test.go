package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bramvdmeulen/tegenstem/internal/app/results"
	"github.com/bramvdmeulen/tegenstem/internal/app/voting"
	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

type MockVotingService struct {
	mock.Mock
}

func (m *MockVotingService) Submit(ctx context.Context, req voting.SubmitRequest) (voting.SubmitResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(voting.SubmitResult), args.Error(1)
}

func (m *MockVotingService) HasVoted(ctx context.Context, networkAddress, deviceSignature, existingToken string) (bool, error) {
	args := m.Called(ctx, networkAddress, deviceSignature, existingToken)
	return args.Bool(0), args.Error(1)
}

func (m *MockVotingService) ListBallots(ctx context.Context) ([]voting.BallotDetail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]voting.BallotDetail), args.Error(1)
}

func (m *MockVotingService) AdminInsert(ctx context.Context, req voting.SubmitRequest) (domain.VoteID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.VoteID), args.Error(1)
}

func (m *MockVotingService) DeleteBallot(ctx context.Context, id domain.VoteID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVotingService) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVotingService) CreateParty(ctx context.Context, party domain.Party, candidates []domain.Candidate) (domain.Party, error) {
	args := m.Called(ctx, party, candidates)
	return args.Get(0).(domain.Party), args.Error(1)
}

func (m *MockVotingService) UpdateAppearance(ctx context.Context, id domain.PartyID, color, logoURL string) error {
	args := m.Called(ctx, id, color, logoURL)
	return args.Error(0)
}

func (m *MockVotingService) ListParties(ctx context.Context) ([]domain.Party, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Party), args.Error(1)
}

func (m *MockVotingService) ListCandidates(ctx context.Context, partyID domain.PartyID) ([]domain.Candidate, error) {
	args := m.Called(ctx, partyID)
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

type MockResultsService struct {
	mock.Mock
}

func (m *MockResultsService) Published(ctx context.Context) (domain.Results, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Results), args.Error(1)
}

func (m *MockResultsService) Compute(ctx context.Context) (domain.Results, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Results), args.Error(1)
}

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) All(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockSettingsStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

const testAdminToken = "test-admin-token"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{}))
}

func setupAPI(t *testing.T) (*API, *MockVotingService, *MockResultsService, *MockSettingsStore) {
	mockVotes := new(MockVotingService)
	mockResults := new(MockResultsService)
	mockSettings := new(MockSettingsStore)
	api := New(mockVotes, mockResults, mockSettings, testAdminToken, newTestLogger())

	t.Cleanup(func() {
		mockVotes.AssertExpectations(t)
		mockResults.AssertExpectations(t)
		mockSettings.AssertExpectations(t)
	})

	return api, mockVotes, mockResults, mockSettings
}

// === GET /healthz ===

func TestHandleHealthz_WhenCalled_ShouldReturn200OK(t *testing.T) {
	api, _, _, _ := setupAPI(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	api.handleHealthz(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

// === POST /api/votes ===

func TestHandleVotes_WhenBallotAccepted_ShouldReturn201AndSetCookie(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	payload := `{"for_party_id":"01PARTYALFA0000000000000A","against_party_id":"01PARTYBETA0000000000000B","device_signature":"abcd"}`
	mockVotes.On("Submit", mock.Anything, mock.MatchedBy(func(req voting.SubmitRequest) bool {
		return string(req.ForPartyID) == "01PARTYALFA0000000000000A" &&
			string(req.AgainstPartyID) == "01PARTYBETA0000000000000B" &&
			req.NetworkAddress == "1.2.3.4" &&
			req.DeviceSignature == "abcd"
	})).Return(voting.SubmitResult{VoteID: "01VOTE000000000000000000A", Token: "01TOKEN00000000000000000A"}, nil)

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "accepted", response["status"])
	assert.Equal(t, "01TOKEN00000000000000000A", response["token"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ballotTokenCookie, cookies[0].Name)
	assert.Equal(t, "01TOKEN00000000000000000A", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHandleVotes_WhenCookiePresent_ShouldForwardToken(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	payload := `{"for_party_id":"A","against_party_id":"B"}`
	mockVotes.On("Submit", mock.Anything, mock.MatchedBy(func(req voting.SubmitRequest) bool {
		return req.ExistingToken == "01TOKEN00000000000000000A"
	})).Return(voting.SubmitResult{}, voting.ErrAlreadyVoted)

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	req.AddCookie(&http.Cookie{Name: ballotTokenCookie, Value: "01TOKEN00000000000000000A"})
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleVotes_WhenAlreadyVoted_ShouldReturn409(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	payload := `{"for_party_id":"A","against_party_id":"B"}`
	mockVotes.On("Submit", mock.Anything, mock.Anything).Return(voting.SubmitResult{}, voting.ErrAlreadyVoted)

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "already_voted", response["error"])
}

func TestHandleVotes_WhenInvalidPayload_ShouldReturn400(t *testing.T) {
	api, _, _, _ := setupAPI(t)

	payload := `{"for_party_id":invalid}`

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid payload\n", w.Body.String())
}

func TestHandleVotes_WhenSelectionInvalid_ShouldReturn400(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	payload := `{"for_party_id":"A","against_party_id":"A"}`
	mockVotes.On("Submit", mock.Anything, mock.Anything).Return(voting.SubmitResult{}, voting.ErrInvalidSelection)

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "invalid_selection", response["error"])
}

func TestHandleVotes_WhenChallengeFails_ShouldReturn400(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	payload := `{"for_party_id":"A","against_party_id":"B","challenge_token":"bad"}`
	mockVotes.On("Submit", mock.Anything, mock.Anything).Return(voting.SubmitResult{}, voting.ErrChallengeFailed)

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "challenge_failed", response["error"])
}

func TestHandleVotes_WhenStoreUnavailable_ShouldReturn503(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	payload := `{"for_party_id":"A","against_party_id":"B"}`
	mockVotes.On("Submit", mock.Anything, mock.Anything).Return(voting.SubmitResult{}, voting.ErrStoreUnavailable)

	req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte(payload)))
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleVotes_WhenMethodNotPost_ShouldReturn405(t *testing.T) {
	api, _, _, _ := setupAPI(t)

	req := httptest.NewRequest("GET", "/api/votes", nil)
	w := httptest.NewRecorder()

	api.handleVotes(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// === GET /api/votes/check ===

func TestHandleVoteCheck_WhenIdentityKnown_ShouldReportVoted(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	mockVotes.On("HasVoted", mock.Anything, "1.2.3.4", "abcd", "").Return(true, nil)

	req := httptest.NewRequest("GET", "/api/votes/check?fingerprint=abcd", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	w := httptest.NewRecorder()

	api.handleVoteCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]bool
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response["has_voted"])
}

func TestHandleVoteCheck_WhenFreshIdentity_ShouldReportNotVoted(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	mockVotes.On("HasVoted", mock.Anything, mock.Anything, "", "").Return(false, nil)

	req := httptest.NewRequest("GET", "/api/votes/check", nil)
	w := httptest.NewRecorder()

	api.handleVoteCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]bool
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response["has_voted"])
}

// === GET /api/results ===

func TestHandleResults_WhenHidden_ShouldReturn403WithoutTallyData(t *testing.T) {
	api, _, mockResults, _ := setupAPI(t)

	mockResults.On("Published", mock.Anything).Return(domain.Results{}, results.ErrResultsHidden)

	req := httptest.NewRequest("GET", "/api/results", nil)
	w := httptest.NewRecorder()

	api.handleResults(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "results_hidden", response["error"])
	assert.NotContains(t, w.Body.String(), "voorstemmen")
}

func TestHandleResults_WhenVisible_ShouldReturnTally(t *testing.T) {
	api, _, mockResults, _ := setupAPI(t)

	mockResults.On("Published", mock.Anything).Return(domain.Results{
		Parties: []domain.PartyResult{
			{Abbreviation: "ALFA", Voorstemmen: 10, Tegenstemmen: 2, Netto: 9, Seats: 90},
			{Abbreviation: "BETA", Voorstemmen: 4, Tegenstemmen: 6, Netto: 1, Seats: 10},
		},
		TotalVoters: 11,
		TotalSeats:  100,
	}, nil)

	req := httptest.NewRequest("GET", "/api/results", nil)
	w := httptest.NewRecorder()

	api.handleResults(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.Results
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Parties, 2)
	assert.Equal(t, 90, response.Parties[0].Seats)
	assert.Equal(t, int64(11), response.TotalVoters)
}

// === GET /api/parties and /api/candidates ===

func TestHandleParties_WhenCalled_ShouldReturnList(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	mockVotes.On("ListParties", mock.Anything).Return([]domain.Party{
		{ID: "01PARTYALFA0000000000000A", Name: "Partij Alfa", Abbreviation: "ALFA"},
	}, nil)

	req := httptest.NewRequest("GET", "/api/parties", nil)
	w := httptest.NewRecorder()

	api.handleParties(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.Party
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response, 1)
	assert.Equal(t, "ALFA", response[0].Abbreviation)
}

func TestHandleCandidates_WhenPartyIDMissing_ShouldReturn400(t *testing.T) {
	api, _, _, _ := setupAPI(t)

	req := httptest.NewRequest("GET", "/api/candidates", nil)
	w := httptest.NewRecorder()

	api.handleCandidates(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCandidates_WhenPartyIDGiven_ShouldReturnList(t *testing.T) {
	api, mockVotes, _, _ := setupAPI(t)

	mockVotes.On("ListCandidates", mock.Anything, domain.PartyID("01PARTYALFA0000000000000A")).Return([]domain.Candidate{
		{ID: "01CANDALFA0000000000000A1", Name: "Alfa Lijsttrekker", Position: 1},
	}, nil)

	req := httptest.NewRequest("GET", "/api/candidates?party_id=01PARTYALFA0000000000000A", nil)
	w := httptest.NewRecorder()

	api.handleCandidates(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.Candidate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response, 1)
}

// === client address resolution ===

func TestClientAddress_ShouldPreferForwardedHeaders(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded first hop", "1.2.3.4, 10.0.0.1", "", "192.168.1.1:1234", "1.2.3.4"},
		{"real ip fallback", "", "5.6.7.8", "192.168.1.1:1234", "5.6.7.8"},
		{"socket fallback", "", "", "192.168.1.1:1234", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, clientAddress(req))
		})
	}
}
