package devsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
)

// ErrAlreadyAttested is returned when a root hash is anchored twice.
var ErrAlreadyAttested = errors.New("claim is already attested")

// Validator checks credentials against the known cTypes.
// It implements chain.CredentialValidator.
type Validator struct {
	registry *ctype.Registry
}

func NewValidator(registry *ctype.Registry) *Validator {
	return &Validator{registry: registry}
}

func (v *Validator) ValidateCredential(_ context.Context, credential chain.Credential) error {
	c, ok := v.registry.Lookup(credential.Claim.CTypeHash)
	if !ok {
		return fmt.Errorf("unknown cType %s", credential.Claim.CTypeHash)
	}
	if credential.Claim.Owner == "" {
		return errors.New("claim has no owner")
	}
	if err := c.ValidateContents(credential.Claim.Contents); err != nil {
		return err
	}
	root, err := ctype.HashClaim(credential.Claim)
	if err != nil {
		return err
	}
	if root != credential.RootHash {
		return errors.New("root hash does not match claim")
	}
	return nil
}

// LedgerEntry is one anchored attestation.
type LedgerEntry struct {
	Attestation chain.Attestation
	CreatedAt   time.Time
}

// Ledger keeps attestations in memory. It implements chain.Attester and
// chain.PresentationVerifier.
type Ledger struct {
	attester  chain.DID
	validator chain.CredentialValidator
	delay     time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]LedgerEntry
	order   []string
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithBlockTime makes every submission take d, like waiting for finalization.
func WithBlockTime(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		l.delay = d
	}
}

// WithLedgerClock overrides the clock used to stamp entries.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates an empty ledger whose attestations are issued by attester.
func NewLedger(attester chain.DID, validator chain.CredentialValidator, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		attester:  attester,
		validator: validator,
		now:       time.Now,
		entries:   make(map[string]LedgerEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Attest(ctx context.Context, credential chain.Credential) (*chain.Attestation, error) {
	if err := l.validator.ValidateCredential(ctx, credential); err != nil {
		return nil, fmt.Errorf("invalid credential: %w", err)
	}
	if l.delay > 0 {
		timer := time.NewTimer(l.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[credential.RootHash]; exists {
		return nil, ErrAlreadyAttested
	}
	att := chain.Attestation{
		ClaimHash: credential.RootHash,
		CTypeHash: credential.Claim.CTypeHash,
		Owner:     l.attester,
	}
	l.entries[credential.RootHash] = LedgerEntry{Attestation: att, CreatedAt: l.now()}
	l.order = append(l.order, credential.RootHash)
	return &att, nil
}

// Revoke marks an attestation as revoked.
func (l *Ledger) Revoke(claimHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[claimHash]
	if !ok {
		return fmt.Errorf("no attestation for %s", claimHash)
	}
	e.Attestation.Revoked = true
	l.entries[claimHash] = e
	return nil
}

// Entries returns every attestation in creation order.
func (l *Ledger) Entries() []LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LedgerEntry, 0, len(l.order))
	for _, h := range l.order {
		out = append(out, l.entries[h])
	}
	return out
}

func (l *Ledger) VerifyPresentation(ctx context.Context, p chain.Presentation, challenge string) (*chain.VerifiedPresentation, error) {
	if p.Challenge != challenge {
		return nil, errors.New("challenge mismatch")
	}
	if chain.DIDFromKeyURI(p.KeyURI) != p.Credential.Claim.Owner {
		return nil, errors.New("presentation was not made by the claim owner")
	}
	if err := l.validator.ValidateCredential(ctx, p.Credential); err != nil {
		return nil, fmt.Errorf("invalid credential: %w", err)
	}

	l.mu.RLock()
	e, ok := l.entries[p.Credential.RootHash]
	l.mu.RUnlock()
	if !ok {
		return nil, errors.New("credential is not attested")
	}
	return &chain.VerifiedPresentation{
		Claim:    p.Credential.Claim,
		Attester: e.Attestation.Owner,
		Revoked:  e.Attestation.Revoked,
	}, nil
}

// CountByCType counts attestations per cType hash.
func (l *Ledger) CountByCType() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.Entries() {
		counts[e.Attestation.CTypeHash]++
	}
	return counts
}

var (
	_ chain.CredentialValidator  = (*Validator)(nil)
	_ chain.Attester             = (*Ledger)(nil)
	_ chain.PresentationVerifier = (*Ledger)(nil)
)
