// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	dErrors "socialkyc/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SessionID where a MessageID is expected.
type (
	SessionID uuid.UUID
	MessageID uuid.UUID
)

// NewSessionID draws a fresh random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewMessageID draws a fresh random message identifier.
func NewMessageID() MessageID { return MessageID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

// String methods - for logging and debugging.

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id MessageID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// LogValue returns a short, non-reversible form of the session id.
// Session ids are bearer credentials and never go to logs verbatim.
func (id SessionID) LogValue() string {
	sum := sha256.Sum256(id[:])
	return hex.EncodeToString(sum[:6])
}

// parseUUID is the shared validation logic.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be nil")
	}
	return id, nil
}
