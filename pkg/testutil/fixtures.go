package testutil

import (
	"time"

	"github.com/google/uuid"

	"socialkyc/internal/chain"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
)

// TestIDs provides fixed IDs for deterministic test data.
var TestIDs = struct {
	SessionID1 id.SessionID
	SessionID2 id.SessionID
}{
	SessionID1: id.SessionID(uuid.MustParse("eeee0000-0000-0000-0000-000000000001")),
	SessionID2: id.SessionID(uuid.MustParse("eeee0000-0000-0000-0000-000000000002")),
}

// SessionBuilder provides a fluent interface for building test sessions.
type SessionBuilder struct {
	session models.Session
}

// NewSessionBuilder starts from a fresh session with an unconsumed challenge.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		session: models.Session{
			ID:           id.NewSessionID(),
			CreatedAt:    time.Now(),
			DeviceName:   "Chrome on Linux",
			DIDChallenge: "00112233445566778899aabbccddeeff",
		},
	}
}

func (b *SessionBuilder) WithID(sessionID id.SessionID) *SessionBuilder {
	b.session.ID = sessionID
	return b
}

// WithDID marks the DID as confirmed now.
func (b *SessionBuilder) WithDID(did chain.DID) *SessionBuilder {
	b.session.DID = did
	b.session.DIDConfirmed = true
	b.session.DIDConfirmedAt = time.Now()
	b.session.EncryptionKeyURI = string(did) + "#encryption"
	b.session.DIDChallenge = ""
	return b
}

func (b *SessionBuilder) WithDIDConfirmedAt(at time.Time) *SessionBuilder {
	b.session.DIDConfirmedAt = at
	return b
}

// WithConfirmedClaim sets a claim and marks it confirmed.
func (b *SessionBuilder) WithConfirmedClaim(claim chain.Claim) *SessionBuilder {
	b.session.Claim = &claim
	b.session.Confirmed = true
	return b
}

// WithPendingClaim sets a claim that is not confirmed yet.
func (b *SessionBuilder) WithPendingClaim(claim chain.Claim) *SessionBuilder {
	b.session.Claim = &claim
	b.session.Confirmed = false
	return b
}

func (b *SessionBuilder) WithCredential(credential chain.Credential) *SessionBuilder {
	b.session.Credential = &credential
	return b
}

func (b *SessionBuilder) Build() models.Session {
	return b.session
}
