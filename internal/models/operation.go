package models

import "time"

// OperationKind separates compose operations from repository operations
type OperationKind string

const (
	// OperationKindStack is a start, stop or restart of the deployment
	OperationKindStack OperationKind = "stack"
	// OperationKindGit is a clone, pull or build of the repository
	OperationKindGit OperationKind = "git"
)

// Operation is one executed stack or repository operation
type Operation struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	Kind       OperationKind `json:"kind" gorm:"size:16;index;not null"`
	Operation  string        `json:"operation" gorm:"size:32;not null"`
	Mode       string        `json:"mode,omitempty" gorm:"size:64"`
	Services   StringArray   `json:"services" gorm:"type:text"`
	Command    string        `json:"command" gorm:"type:text"`
	Success    bool          `json:"success"`
	Message    string        `json:"message" gorm:"type:text"`
	Error      string        `json:"error,omitempty" gorm:"type:text"`
	ExitCode   *int          `json:"exit_code"`
	Truncated  bool          `json:"truncated"`
	DurationMs int64         `json:"duration_ms"`
	RequestID  string        `json:"request_id,omitempty" gorm:"size:64"`
	CreatedAt  time.Time     `json:"created_at" gorm:"index"`
}

// TableName returns the table name for the Operation model
func (Operation) TableName() string {
	return "operations"
}
