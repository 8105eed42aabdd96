// Package repositories persists the agent's records with gorm.
package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrAlreadyPublished  = errors.New("agentic proposal already published")
)

// wrap maps gorm errors onto the package errors
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
}
