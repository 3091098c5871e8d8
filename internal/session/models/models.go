package models

import (
	"time"

	"socialkyc/internal/chain"
	id "socialkyc/pkg/domain"
	"socialkyc/pkg/platform/task"
)

// Session is one browser session working through the verification flow.
// Stores hand out copies; Claim and Credential are replaced, never mutated
// in place, so copies may share them.
type Session struct {
	ID        id.SessionID
	CreatedAt time.Time
	// DeviceName is a display name parsed from the User-Agent at start.
	DeviceName string

	// DIDChallenge is issued at start and cleared once the DID is confirmed.
	DIDChallenge string
	// DID and EncryptionKeyURI are only meaningful when DIDConfirmed is set.
	DID              chain.DID
	DIDConfirmed     bool
	DIDConfirmedAt   time.Time
	EncryptionKeyURI string

	// Claim awaiting attestation. Owner may be empty until a credential is submitted.
	Claim *chain.Claim
	// Confirmed is set together with Claim once a provider proved ownership.
	Confirmed bool
	// Credential is the validated request for attestation.
	Credential *chain.Credential
	// Attestation is the in-flight or last finished attestation, if any.
	Attestation          *task.Task[*chain.Attestation]
	LastAttestationError string

	// RequestChallenge is the nonce of a pending credential presentation.
	RequestChallenge string
}

// ClearClaim drops every claim-related field so the session can start
// another credential type.
func (s *Session) ClearClaim() {
	s.Claim = nil
	s.Confirmed = false
	s.Credential = nil
}

// MoveClaimTo transfers the claim state to dst and clears it on s.
func (s *Session) MoveClaimTo(dst *Session) {
	dst.Claim = s.Claim
	dst.Confirmed = s.Confirmed
	dst.Credential = s.Credential
	dst.Attestation = s.Attestation
	dst.LastAttestationError = s.LastAttestationError
	s.ClearClaim()
	s.Attestation = nil
	s.LastAttestationError = ""
}

// DIDStale reports whether the DID confirmation is older than maxAge.
// A non-positive maxAge never expires.
func (s *Session) DIDStale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.DIDConfirmedAt) > maxAge
}
