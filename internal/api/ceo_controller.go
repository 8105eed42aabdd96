package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/ceo"
	"github.com/afro-network/ceo-agent/internal/llm"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/utils"
)

// CEOService is the chat, network status and proposal backend
type CEOService interface {
	NetworkStatus(ctx context.Context) models.NetworkStatus
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	Conversations(ctx context.Context) ([]models.Conversation, error)
	ListProposals(ctx context.Context, status string) ([]models.Proposal, error)
	CreateProposal(ctx context.Context, req models.ProposalCreateRequest) (*models.Proposal, error)
	UpdateProposal(ctx context.Context, id string, req models.ProposalUpdateRequest) (*models.Proposal, error)
	GenerateProposal(ctx context.Context, req models.GenerateProposalRequest) (*models.AgenticProposal, error)
	ListAgentic(ctx context.Context) ([]models.AgenticProposal, error)
	Publish(ctx context.Context, id string) (*models.PublishResponse, error)
}

// CEOController handles the CEO agent routes. Its failures never touch the stack routes.
type CEOController struct {
	service CEOService
	logger  *logrus.Logger
}

// NewCEOController creates a new CEO controller
func NewCEOController(service CEOService, logger *logrus.Logger) *CEOController {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CEOController{service: service, logger: logger}
}

// RegisterRoutes registers the CEO agent routes. Proposal writes run behind operator.
func (ctrl *CEOController) RegisterRoutes(router *gin.RouterGroup, operator gin.HandlerFunc) {
	g := router.Group("", ctrl.requireService)

	g.GET("/status", ctrl.Status)
	g.POST("/chat", ctrl.Chat)
	g.GET("/conversations", ctrl.Conversations)

	g.GET("/proposals", ctrl.ListProposals)
	g.POST("/proposals", operator, ctrl.CreateProposal)
	g.PUT("/proposals/:id", operator, ctrl.UpdateProposal)

	g.GET("/agentic-proposals", ctrl.ListAgentic)
	g.POST("/generate-proposal", operator, ctrl.GenerateProposal)
	g.POST("/agentic-proposals/publish", operator, ctrl.Publish)
}

func (ctrl *CEOController) requireService(c *gin.Context) {
	if ctrl.service == nil {
		utils.ServiceUnavailable(c, "CEO agent is not available")
		c.Abort()
		return
	}
	c.Next()
}

// Status godoc
// @Summary Network status
// @Description Probes the mainnet and testnet RPC and explorer endpoints.
// @Tags CEO
// @Produce json
// @Success 200 {object} models.NetworkStatus
// @Router /status [get]
func (ctrl *CEOController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.service.NetworkStatus(c.Request.Context()))
}

// Chat godoc
// @Summary Ask the CEO agent
// @Description Answers a question with the current network status as context. A reply that reports
// @Description an issue, problem or bug is filed as a GitHub issue when the integration is configured.
// @Tags CEO
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Question"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} utils.Response
// @Failure 503 {object} utils.Response "LLM unavailable"
// @Router /chat [post]
func (ctrl *CEOController) Chat(c *gin.Context) {
	var req models.ChatRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	resp, err := ctrl.service.Chat(c.Request.Context(), req)
	if err != nil {
		ctrl.handleError(c, err, "Failed to process chat")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Conversations godoc
// @Summary Recent conversations
// @Description Returns the last 50 conversations, oldest first.
// @Tags CEO
// @Produce json
// @Success 200 {array} models.Conversation
// @Failure 500 {object} utils.Response
// @Router /conversations [get]
func (ctrl *CEOController) Conversations(c *gin.Context) {
	conversations, err := ctrl.service.Conversations(c.Request.Context())
	if err != nil {
		ctrl.handleError(c, err, "Failed to load conversations")
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// ListProposals godoc
// @Summary List proposals
// @Tags Proposals
// @Produce json
// @Param status query string false "Filter by status" Enums(draft, open, approved, rejected, implemented)
// @Success 200 {array} models.Proposal
// @Failure 400 {object} utils.Response
// @Router /proposals [get]
func (ctrl *CEOController) ListProposals(c *gin.Context) {
	var req models.ProposalListRequest
	if !utils.BindQuery(c, &req) {
		return
	}

	proposals, err := ctrl.service.ListProposals(c.Request.Context(), req.Status)
	if err != nil {
		ctrl.handleError(c, err, "Failed to list proposals")
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// CreateProposal godoc
// @Summary Create a proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ProposalCreateRequest true "Proposal"
// @Success 201 {object} models.Proposal
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /proposals [post]
func (ctrl *CEOController) CreateProposal(c *gin.Context) {
	var req models.ProposalCreateRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	proposal, err := ctrl.service.CreateProposal(c.Request.Context(), req)
	if err != nil {
		ctrl.handleError(c, err, "Failed to create proposal")
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

// UpdateProposal godoc
// @Summary Update a proposal
// @Description Applies a partial update. Omitted fields keep their value.
// @Tags Proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proposal ID"
// @Param request body models.ProposalUpdateRequest true "Changes"
// @Success 200 {object} models.Proposal
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /proposals/{id} [put]
func (ctrl *CEOController) UpdateProposal(c *gin.Context) {
	var req models.ProposalUpdateRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	proposal, err := ctrl.service.UpdateProposal(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ctrl.handleError(c, err, "Failed to update proposal")
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// ListAgentic godoc
// @Summary List agentic proposals
// @Description Returns LLM drafted proposals, newest first.
// @Tags Proposals
// @Produce json
// @Success 200 {array} models.AgenticProposal
// @Router /agentic-proposals [get]
func (ctrl *CEOController) ListAgentic(c *gin.Context) {
	proposals, err := ctrl.service.ListAgentic(c.Request.Context())
	if err != nil {
		ctrl.handleError(c, err, "Failed to list agentic proposals")
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// GenerateProposal godoc
// @Summary Draft a proposal with the LLM
// @Tags Proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GenerateProposalRequest true "Topic"
// @Success 201 {object} models.AgenticProposal
// @Failure 400 {object} utils.Response
// @Failure 503 {object} utils.Response "LLM unavailable"
// @Router /generate-proposal [post]
func (ctrl *CEOController) GenerateProposal(c *gin.Context) {
	var req models.GenerateProposalRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	draft, err := ctrl.service.GenerateProposal(c.Request.Context(), req)
	if err != nil {
		ctrl.handleError(c, err, "Failed to generate proposal")
		return
	}
	c.JSON(http.StatusCreated, draft)
}

// Publish godoc
// @Summary Publish an agentic proposal
// @Description Files a GitHub issue when configured and turns the draft into an open proposal.
// @Tags Proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PublishProposalRequest true "Draft to publish"
// @Success 200 {object} models.PublishResponse
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response "Already published"
// @Failure 502 {object} utils.Response "GitHub request failed"
// @Router /agentic-proposals/publish [post]
func (ctrl *CEOController) Publish(c *gin.Context) {
	var req models.PublishProposalRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	resp, err := ctrl.service.Publish(c.Request.Context(), req.ID)
	if err != nil {
		ctrl.handleError(c, err, "Failed to publish proposal")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleError maps service errors onto responses
func (ctrl *CEOController) handleError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ceo.ErrEmptyMessage), errors.Is(err, ceo.ErrInvalidStatus):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, ceo.ErrProposalNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, ceo.ErrAlreadyPublished):
		utils.Conflict(c, err.Error())
	case errors.Is(err, llm.ErrLLMUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "LLM_UNAVAILABLE", "The CEO agent model is unavailable", err.Error())
	case errors.Is(err, ceo.ErrIssueTracker):
		utils.BadGateway(c, "Issue tracker request failed", err.Error())
	default:
		ctrl.logger.WithError(err).Error(message)
		utils.InternalServerError(c, message)
	}
}
