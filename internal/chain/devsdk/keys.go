// Package devsdk is a self-contained stand-in for the identity chain SDK.
// It lets the server run end to end without a chain node: DID keys live in
// an in-memory keyring, messages use nacl/box, and attestations are kept in
// an in-memory ledger.
package devsdk

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"socialkyc/internal/chain"
)

// ErrUnknownKey is returned when a key URI is not in the keyring.
var ErrUnknownKey = errors.New("unknown encryption key")

// KeyPair is an X25519 key agreement key pair.
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateKeyPair draws a random key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key pair: %w", err)
	}
	return KeyPair{Public: *pub, Private: *priv}, nil
}

// DeriveKeyPair derives a key pair from a seed so restarts keep the same key.
func DeriveKeyPair(seed string) (KeyPair, error) {
	var kp KeyPair
	kp.Private = sha256.Sum256([]byte(seed))
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("derive public key: %w", err)
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// Keyring maps DID key URIs to public keys.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string][32]byte
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string][32]byte)}
}

// Register publishes pub under keyURI, replacing any previous key.
func (k *Keyring) Register(keyURI string, pub [32]byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[keyURI] = pub
}

// ResolveEncryptionKey implements chain.DIDResolver.
func (k *Keyring) ResolveEncryptionKey(_ context.Context, keyURI string) (*chain.EncryptionKey, error) {
	if !strings.Contains(keyURI, "#") {
		return nil, fmt.Errorf("key uri %q has no fragment", keyURI)
	}
	k.mu.RLock()
	pub, ok := k.keys[keyURI]
	k.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownKey
	}
	return &chain.EncryptionKey{DID: chain.DIDFromKeyURI(keyURI), URI: keyURI, PublicKey: pub}, nil
}

func seal(plaintext []byte, receiver, senderPrivate *[32]byte) (ciphertext, nonce string, err error) {
	var n [24]byte
	if _, err := rand.Read(n[:]); err != nil {
		return "", "", fmt.Errorf("draw nonce: %w", err)
	}
	out := box.Seal(nil, plaintext, &n, receiver, senderPrivate)
	return encodeHex(out), encodeHex(n[:]), nil
}

func open(ciphertext, nonce string, sender, receiverPrivate *[32]byte) ([]byte, error) {
	ct, err := decodeHex(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ciphertext: %w", err)
	}
	rawNonce, err := decodeHex(nonce)
	if err != nil || len(rawNonce) != 24 {
		return nil, errors.New("nonce must be 24 hex encoded bytes")
	}
	var n [24]byte
	copy(n[:], rawNonce)
	plain, ok := box.Open(nil, ct, &n, sender, receiverPrivate)
	if !ok {
		return nil, errors.New("decryption failed")
	}
	return plain, nil
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
