package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewUUID returns a random v4 UUID in its canonical form. Object keys use it.
func NewUUID() string { return uuid.NewString() }

// NewID32 is NewUUID without hyphens; request ids use it.
func NewID32() string {
	return strings.ReplaceAll(NewUUID(), "-", "")
}
