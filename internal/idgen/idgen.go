package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for generated identifiers
const (
	PrefixRequest = "req_"
)

// NewRequest generates a request ID with req_ prefix
func NewRequest() string {
	return PrefixRequest + uuid.New().String()
}

// New generates a generic UUID without prefix
func New() string {
	return uuid.New().String()
}
