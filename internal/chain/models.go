// Package chain holds the identity-chain data model exchanged with wallets
// and the ports through which chain operations are performed.
package chain

import (
	"encoding/json"
	"strings"
)

// DID is a decentralized identifier such as "did:kilt:4abc".
type DID string

// DIDFromKeyURI strips the key fragment from a DID key URI.
func DIDFromKeyURI(keyURI string) DID {
	did, _, _ := strings.Cut(keyURI, "#")
	return DID(did)
}

// Claim is a set of properties bound to a cType and an owner, not yet attested.
type Claim struct {
	CTypeHash string         `json:"cTypeHash"`
	Contents  map[string]any `json:"contents"`
	Owner     DID            `json:"owner,omitempty"`
}

// Clone returns a copy that shares no maps with c.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	out := *c
	if c.Contents != nil {
		out.Contents = make(map[string]any, len(c.Contents))
		for k, v := range c.Contents {
			out.Contents[k] = v
		}
	}
	return &out
}

// Credential is the request for attestation a wallet builds from a claim.
type Credential struct {
	Claim         Claim             `json:"claim"`
	ClaimNonceMap map[string]string `json:"claimNonceMap,omitempty"`
	Legitimations []Credential      `json:"legitimations"`
	RootHash      string            `json:"rootHash"`
}

// Attestation anchors a credential's root hash as issued by an attester.
type Attestation struct {
	ClaimHash string `json:"claimHash"`
	CTypeHash string `json:"cTypeHash"`
	Owner     DID    `json:"owner"`
	Revoked   bool   `json:"revoked"`
}

// Presentation is a credential shown to a verifier together with the
// challenge it was presented for.
type Presentation struct {
	Credential Credential `json:"credential"`
	Challenge  string     `json:"challenge"`
	KeyURI     string     `json:"keyUri"`
}

// VerifiedPresentation is the outcome of a successful presentation check.
type VerifiedPresentation struct {
	Claim    Claim `json:"claim"`
	Attester DID   `json:"attester"`
	Revoked  bool  `json:"revoked"`
}

// BodyType is the declared type of a message body.
type BodyType string

const (
	BodySubmitTerms        BodyType = "submit-terms"
	BodyRequestAttestation BodyType = "request-attestation"
	BodyRejectTerms        BodyType = "reject-terms"
	BodySubmitAttestation  BodyType = "submit-attestation"
	BodyRequestCredential  BodyType = "request-credential"
	BodySubmitCredential   BodyType = "submit-credential"
)

// Body is a typed message payload. Content is decoded according to Type.
type Body struct {
	Type    BodyType        `json:"type"`
	Content json.RawMessage `json:"content"`
}

// Message is the plaintext exchanged with a wallet.
type Message struct {
	Body      Body   `json:"body"`
	MessageID string `json:"messageId"`
	Sender    DID    `json:"sender"`
	Receiver  DID    `json:"receiver"`
	CreatedAt int64  `json:"createdAt"`
}

// EncryptedMessage is the wire envelope. It is opaque beyond its key ids.
type EncryptedMessage struct {
	ReceiverKeyURI string `json:"receiverKeyId" validate:"required"`
	SenderKeyURI   string `json:"senderKeyId" validate:"required"`
	Ciphertext     string `json:"ciphertext" validate:"required"`
	Nonce          string `json:"nonce" validate:"required"`
}

// SubmitTerms offers a claim for the wallet to turn into a credential.
type SubmitTerms struct {
	Claim         Claim        `json:"claim"`
	CTypes        []any        `json:"cTypes,omitempty"`
	Legitimations []Credential `json:"legitimations"`
}

// RequestAttestation carries the wallet's credential back for attestation.
type RequestAttestation struct {
	Credential Credential `json:"credential"`
}

// SubmitAttestation returns the finished attestation to the wallet.
type SubmitAttestation struct {
	Attestation Attestation `json:"attestation"`
}

// CredentialRequirement names one acceptable credential type.
type CredentialRequirement struct {
	CTypeHash          string   `json:"cTypeHash"`
	TrustedAttesters   []DID    `json:"trustedAttesters,omitempty"`
	RequiredProperties []string `json:"requiredProperties,omitempty"`
}

// RequestCredential asks a wallet to present one of the listed credential types.
type RequestCredential struct {
	CTypes    []CredentialRequirement `json:"cTypes"`
	Challenge string                  `json:"challenge"`
}

// NewBody encodes content under the given type.
func NewBody(t BodyType, content any) (Body, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return Body{}, err
	}
	return Body{Type: t, Content: raw}, nil
}

// DecodeContent decodes the body content into v.
func (b Body) DecodeContent(v any) error {
	return json.Unmarshal(b.Content, v)
}
