package models

import (
	"time"

	"gorm.io/gorm"
)

// ProposalStatus is the lifecycle state of a proposal
type ProposalStatus string

const (
	ProposalDraft       ProposalStatus = "draft"
	ProposalOpen        ProposalStatus = "open"
	ProposalApproved    ProposalStatus = "approved"
	ProposalRejected    ProposalStatus = "rejected"
	ProposalImplemented ProposalStatus = "implemented"
)

// IsValidProposalStatus reports whether status is a known proposal status
func IsValidProposalStatus(status ProposalStatus) bool {
	switch status {
	case ProposalDraft, ProposalOpen, ProposalApproved, ProposalRejected, ProposalImplemented:
		return true
	}
	return false
}

// AgenticStatus is the state of an LLM drafted proposal
type AgenticStatus string

const (
	AgenticDraft     AgenticStatus = "draft"
	AgenticPublished AgenticStatus = "published"
)

// Conversation is one chat exchange with the CEO agent
type Conversation struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Message       string         `json:"user" gorm:"type:text;not null"`
	Context       string         `json:"context,omitempty" gorm:"type:text"`
	Response      string         `json:"ceo" gorm:"type:text"`
	NetworkStatus JSONMap        `json:"networkStatus" gorm:"type:text"`
	IssueNumber   *int           `json:"issue_number,omitempty"`
	CreatedAt     time.Time      `json:"timestamp" gorm:"index"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// Proposal is an improvement proposal tracked by the agent
type Proposal struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"size:64"`
	Priority    string         `json:"priority" gorm:"size:16"`
	Status      ProposalStatus `json:"status" gorm:"size:16;index;not null"`
	Source      string         `json:"source,omitempty" gorm:"size:32"`
	IssueNumber *int           `json:"issue_number,omitempty"`
	IssueURL    string         `json:"issue_url,omitempty" gorm:"size:512"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the Proposal model
func (Proposal) TableName() string {
	return "proposals"
}

// AgenticProposal is a proposal drafted by the LLM
type AgenticProposal struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Topic       string         `json:"topic" gorm:"size:255;not null"`
	Context     string         `json:"context,omitempty" gorm:"type:text"`
	Title       string         `json:"title" gorm:"size:255"`
	Body        string         `json:"body" gorm:"type:text"`
	Model       string         `json:"model" gorm:"size:64"`
	Status      AgenticStatus  `json:"status" gorm:"size:16;index;not null"`
	ProposalID  string         `json:"proposal_id,omitempty" gorm:"size:36"`
	IssueNumber *int           `json:"issue_number,omitempty"`
	IssueURL    string         `json:"issue_url,omitempty" gorm:"size:512"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the AgenticProposal model
func (AgenticProposal) TableName() string {
	return "agentic_proposals"
}

// Incident is an outage of one network observed by the monitor
type Incident struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Network     string     `json:"network" gorm:"size:16;index;not null"`
	Details     JSONMap    `json:"details" gorm:"type:text"`
	IssueNumber *int       `json:"issue_number,omitempty"`
	IssueURL    string     `json:"issue_url,omitempty" gorm:"size:512"`
	OpenedAt    time.Time  `json:"opened_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" gorm:"index"`
}

// TableName returns the table name for the Incident model
func (Incident) TableName() string {
	return "incidents"
}

// Open reports whether the incident has not been resolved yet
func (i *Incident) Open() bool {
	return i.ResolvedAt == nil
}
