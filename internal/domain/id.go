package domain

import "github.com/google/uuid"

// NewRecordID returns a fresh id for an accepted record.
func NewRecordID() string {
	return uuid.NewString()
}
