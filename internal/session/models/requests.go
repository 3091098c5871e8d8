package models

import (
	"strings"

	"socialkyc/pkg/validation"
)

// ConfirmDIDRequest is the wallet's answer to the session challenge.
type ConfirmDIDRequest struct {
	EncryptionKeyURI   string `json:"encryptionKeyUri" validate:"required,max=256"`
	EncryptedChallenge string `json:"encryptedChallenge" validate:"required,max=1024"`
	Nonce              string `json:"nonce" validate:"required,max=128"`
}

func (r *ConfirmDIDRequest) Normalize() {
	r.EncryptionKeyURI = strings.TrimSpace(r.EncryptionKeyURI)
	r.EncryptedChallenge = strings.TrimSpace(r.EncryptedChallenge)
	r.Nonce = strings.TrimSpace(r.Nonce)
}

func (r *ConfirmDIDRequest) Validate() error {
	return validation.Validate(r)
}

// SessionValues is returned when a session starts.
type SessionValues struct {
	DAppEncryptionKeyURI string `json:"dAppEncryptionKeyUri"`
	SessionID            string `json:"sessionId"`
	Challenge            string `json:"challenge"`
}

// SecretResponse carries a freshly issued link secret.
type SecretResponse struct {
	Secret string `json:"secret"`
}
