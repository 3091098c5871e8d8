package chain

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import "context"

// EncryptionKey is a resolved DID key agreement key.
type EncryptionKey struct {
	DID       DID
	URI       string
	PublicKey [32]byte
}

// DIDResolver resolves a DID key URI to its current key agreement key.
type DIDResolver interface {
	ResolveEncryptionKey(ctx context.Context, keyURI string) (*EncryptionKey, error)
}

// ChallengeDecrypter decrypts a challenge that a wallet encrypted for this service.
type ChallengeDecrypter interface {
	DecryptChallenge(ctx context.Context, sender *EncryptionKey, ciphertext, nonce string) (string, error)
}

// Messenger encrypts and decrypts wallet messages.
type Messenger interface {
	// Encrypt addresses msg to the holder of receiverKeyURI.
	Encrypt(ctx context.Context, msg Message, receiverKeyURI string) (*EncryptedMessage, error)
	// Decrypt opens an envelope addressed to this service and checks the sender.
	Decrypt(ctx context.Context, envelope EncryptedMessage) (*Message, error)
}

// Attester anchors credentials on chain.
type Attester interface {
	Attest(ctx context.Context, credential Credential) (*Attestation, error)
}

// CredentialValidator checks the internal consistency of a credential.
type CredentialValidator interface {
	ValidateCredential(ctx context.Context, credential Credential) error
}

// PresentationVerifier verifies a presented credential against its attestation.
type PresentationVerifier interface {
	VerifyPresentation(ctx context.Context, presentation Presentation, challenge string) (*VerifiedPresentation, error)
}
