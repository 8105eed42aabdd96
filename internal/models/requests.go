package models

// ChatRequest represents a question for the CEO agent
// @description Message sent to the CEO agent chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required" example:"How healthy is the testnet?"`
	Context string `json:"context" example:"weekly review"`
}

// ProposalListRequest filters the proposal list
type ProposalListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=draft open approved rejected implemented" example:"open"`
}

// ProposalCreateRequest represents a new proposal
type ProposalCreateRequest struct {
	Title       string `json:"title" binding:"required,max=255" example:"Add a second testnet validator"`
	Description string `json:"description" example:"A second validator removes the single point of failure."`
	Category    string `json:"category" binding:"max=64" example:"infrastructure"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high critical" example:"high"`
}

// ProposalUpdateRequest is a partial update of a proposal
type ProposalUpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Category    *string `json:"category" binding:"omitempty,max=64"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Status      *string `json:"status" binding:"omitempty,oneof=draft open approved rejected implemented"`
}

// GenerateProposalRequest asks the LLM to draft a proposal
type GenerateProposalRequest struct {
	Topic   string `json:"topic" binding:"required,max=255" example:"mobile money onboarding"`
	Context string `json:"context" example:"Kenyan operators asked for faster settlement"`
}

// PublishProposalRequest publishes an agentic proposal
type PublishProposalRequest struct {
	ID string `json:"id" binding:"required" example:"5b1c7c5e-8a0e-4b7a-9a7e-0d6f0f3b9d11"`
}

// GitOperationRequest represents a repository operation
type GitOperationRequest struct {
	Operation string `json:"operation" example:"pull"`
}

// DockerExecuteRequest represents a raw allow-listed command
type DockerExecuteRequest struct {
	Command string `json:"command" binding:"required" example:"docker ps"`
}

// LogsRequest selects how many log lines to return
type LogsRequest struct {
	Tail int `form:"tail" example:"100"`
}

// StackStatusRequest selects the status detail level
type StackStatusRequest struct {
	Detail bool `form:"detail"`
}

// StreamRequest configures the status stream
type StreamRequest struct {
	Interval string `form:"interval" example:"5s"`
}

// OperationListRequest pages through operation history
type OperationListRequest struct {
	Limit int    `form:"limit" binding:"omitempty,gte=1,lte=100" example:"20"`
	Kind  string `form:"kind" binding:"omitempty,oneof=stack git" example:"stack"`
}
