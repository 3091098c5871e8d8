package devsdk

import (
	"context"
	"encoding/json"
	"fmt"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
	id "socialkyc/pkg/domain"
)

// Wallet plays the user's side of the protocol. It backs local tooling and tests.
type Wallet struct {
	DID    chain.DID
	KeyURI string
	keys   KeyPair
}

// NewWallet creates a wallet for did and publishes its key in keyring.
func NewWallet(keyring *Keyring, did chain.DID) (*Wallet, error) {
	keys, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	w := &Wallet{DID: did, KeyURI: string(did) + "#encryption", keys: keys}
	keyring.Register(w.KeyURI, keys.Public)
	return w, nil
}

// EncryptChallenge encrypts a session challenge for the service key.
func (w *Wallet) EncryptChallenge(challenge string, service [32]byte) (ciphertext, nonce string, err error) {
	return seal([]byte(challenge), &service, &w.keys.Private)
}

// Seal encrypts a message body for the service key.
func (w *Wallet) Seal(body chain.Body, serviceKeyURI string, service [32]byte) (*chain.EncryptedMessage, error) {
	msg := chain.Message{
		Body:      body,
		MessageID: id.NewMessageID().String(),
		Sender:    w.DID,
		Receiver:  chain.DIDFromKeyURI(serviceKeyURI),
	}
	plain, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	ct, nonce, err := seal(plain, &service, &w.keys.Private)
	if err != nil {
		return nil, err
	}
	return &chain.EncryptedMessage{ReceiverKeyURI: serviceKeyURI, SenderKeyURI: w.KeyURI, Ciphertext: ct, Nonce: nonce}, nil
}

// Open decrypts a message the service sent to this wallet.
func (w *Wallet) Open(ctx context.Context, resolver chain.DIDResolver, envelope chain.EncryptedMessage) (*chain.Message, error) {
	sender, err := resolver.ResolveEncryptionKey(ctx, envelope.SenderKeyURI)
	if err != nil {
		return nil, err
	}
	plain, err := open(envelope.Ciphertext, envelope.Nonce, &sender.PublicKey, &w.keys.Private)
	if err != nil {
		return nil, err
	}
	var msg chain.Message
	if err := json.Unmarshal(plain, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// BuildCredential turns offered terms into a request for attestation.
func (w *Wallet) BuildCredential(claim chain.Claim) (chain.Credential, error) {
	claim.Owner = w.DID
	root, err := ctype.HashClaim(claim)
	if err != nil {
		return chain.Credential{}, err
	}
	return chain.Credential{Claim: claim, Legitimations: []chain.Credential{}, RootHash: root}, nil
}

// Present wraps a credential for a verifier challenge.
func (w *Wallet) Present(credential chain.Credential, challenge string) chain.Presentation {
	return chain.Presentation{Credential: credential, Challenge: challenge, KeyURI: w.KeyURI}
}
