package service

import (
	"context"

	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
)

// SessionStore persists sessions.
// Error Contract: Find and Save return a CodeNotFound error for unknown or expired sessions.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (models.Session, error)
	Save(ctx context.Context, session models.Session) error
}

// SecretLinker binds single-use secrets to sessions.
// Error Contract: Resolve returns a CodeNotFound error for unknown, expired or used secrets.
type SecretLinker interface {
	Issue(ctx context.Context, sessionID id.SessionID) (string, error)
	Resolve(ctx context.Context, secret string) (id.SessionID, error)
}
