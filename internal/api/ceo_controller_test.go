package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afro-network/ceo-agent/internal/ceo"
	"github.com/afro-network/ceo-agent/internal/llm"
	"github.com/afro-network/ceo-agent/internal/models"
)

func TestNetworkStatus(t *testing.T) {
	ts := newTestServer(t)
	status := models.NetworkStatus{
		Mainnet:   models.EndpointStatus{RPC: true, Explorer: true},
		Testnet:   models.EndpointStatus{RPC: true, Explorer: false},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	ts.ceo.On("NetworkStatus", mock.Anything).Return(status)

	w := ts.do(http.MethodGet, "/api/ceo/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mainnet":{"rpc":true,"explorer":true},"testnet":{"rpc":true,"explorer":false},"timestamp":"2026-03-01T12:00:00Z"}`, w.Body.String())
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)
	req := models.ChatRequest{Message: "How healthy is the testnet?", Context: "weekly review"}
	ts.ceo.On("Chat", mock.Anything, req).Return(&models.ChatResponse{
		Response: "The testnet explorer is down, this is a problem.",
		Issue:    &models.IssueRef{Number: 12, URL: "https://github.com/afro-network/afro-chain/issues/12"},
	}, nil)

	w := ts.do(http.MethodPost, "/chat", `{"message":"How healthy is the testnet?","context":"weekly review"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	decode(t, w, &resp)
	assert.Contains(t, resp.Response, "problem")
	require.NotNil(t, resp.Issue)
	assert.Equal(t, 12, resp.Issue.Number)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantError string
	}{
		{"empty message", ceo.ErrEmptyMessage, http.StatusBadRequest, "BAD_REQUEST"},
		{"llm down", fmt.Errorf("%w: dial tcp 127.0.0.1:11434: connection refused", llm.ErrLLMUnavailable), http.StatusServiceUnavailable, "LLM_UNAVAILABLE"},
		{"unexpected", errBoom, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.ceo.On("Chat", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := ts.do(http.MethodPost, "/chat", `{"message":"   "}`)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantError)
		})
	}

	t.Run("missing message never reaches the service", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(http.MethodPost, "/chat", `{"context":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		ts.ceo.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	})
}

func TestConversations(t *testing.T) {
	ts := newTestServer(t)
	ts.ceo.On("Conversations", mock.Anything).Return([]models.Conversation{
		{ID: 1, Message: "status?", Response: "all green"},
	}, nil)

	w := ts.do(http.MethodGet, "/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []models.Conversation
	decode(t, w, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "all green", resp[0].Response)
}

func TestProposals(t *testing.T) {
	ts := newTestServer(t)

	ts.ceo.On("ListProposals", mock.Anything, "open").Return([]models.Proposal{{ID: "p1", Status: models.ProposalOpen}}, nil)
	w := ts.do(http.MethodGet, "/proposals?status=open", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"p1"`)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/proposals?status=archived", "").Code)

	create := models.ProposalCreateRequest{Title: "Second validator", Priority: "high"}
	ts.ceo.On("CreateProposal", mock.Anything, create).Return(&models.Proposal{ID: "p2", Title: "Second validator", Status: models.ProposalDraft}, nil)
	w = ts.do(http.MethodPost, "/proposals", `{"title":"Second validator","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/proposals", `{"title":"x","priority":"urgent"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/proposals", `{"description":"no title"}`).Code)

	status := "approved"
	ts.ceo.On("UpdateProposal", mock.Anything, "p2", models.ProposalUpdateRequest{Status: &status}).
		Return(&models.Proposal{ID: "p2", Status: models.ProposalApproved}, nil)
	w = ts.do(http.MethodPut, "/proposals/p2", `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	ts.ceo.On("UpdateProposal", mock.Anything, "missing", mock.Anything).Return(nil, ceo.ErrProposalNotFound)
	w = ts.do(http.MethodPut, "/proposals/missing", `{"title":"renamed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgenticProposals(t *testing.T) {
	ts := newTestServer(t)

	gen := models.GenerateProposalRequest{Topic: "mobile money onboarding"}
	ts.ceo.On("GenerateProposal", mock.Anything, gen).Return(&models.AgenticProposal{
		ID: "a1", Topic: gen.Topic, Title: "Faster M-Pesa settlement", Status: models.AgenticDraft,
	}, nil)
	w := ts.do(http.MethodPost, "/generate-proposal", `{"topic":"mobile money onboarding"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"draft"`)

	ts.ceo.On("ListAgentic", mock.Anything).Return([]models.AgenticProposal{{ID: "a1"}}, nil)
	w = ts.do(http.MethodGet, "/agentic-proposals", "")
	require.Equal(t, http.StatusOK, w.Code)

	issue := 31
	ts.ceo.On("Publish", mock.Anything, "a1").Return(&models.PublishResponse{
		AgenticProposal: &models.AgenticProposal{ID: "a1", Status: models.AgenticPublished, IssueNumber: &issue},
		Proposal:        &models.Proposal{ID: "p9", Status: models.ProposalOpen},
		Issue:           &models.IssueRef{Number: issue},
	}, nil).Once()
	w = ts.do(http.MethodPost, "/agentic-proposals/publish", `{"id":"a1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PublishResponse
	decode(t, w, &resp)
	assert.Equal(t, models.ProposalOpen, resp.Proposal.Status)
	assert.Equal(t, 31, resp.Issue.Number)
}

func TestPublish_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", ceo.ErrProposalNotFound, http.StatusNotFound},
		{"already published", ceo.ErrAlreadyPublished, http.StatusConflict},
		{"github down", fmt.Errorf("%w: 502 from api.github.com", ceo.ErrIssueTracker), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.ceo.On("Publish", mock.Anything, "a1").Return(nil, tt.err)

			w := ts.do(http.MethodPost, "/api/ceo/agentic-proposals/publish", `{"id":"a1"}`)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestGenerateProposal_LLMUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.ceo.On("GenerateProposal", mock.Anything, mock.Anything).Return(nil, llm.ErrLLMUnavailable)

	w := ts.do(http.MethodPost, "/generate-proposal", `{"topic":"validators"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// stack routes keep working while the LLM is down
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/stack-status", "").Code)
}

func TestProposalWritesRequireOperator(t *testing.T) {
	ts := newTestServer(t, withAuth)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/proposals"},
		{http.MethodPut, "/proposals/p1"},
		{http.MethodPost, "/generate-proposal"},
		{http.MethodPost, "/agentic-proposals/publish"},
	} {
		w := ts.do(r.method, r.path, `{"title":"t","topic":"t","id":"a1"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
	}

	ts.ceo.On("ListProposals", mock.Anything, "").Return([]models.Proposal{}, nil)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/proposals", "").Code)
	ts.ceo.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything)
}
