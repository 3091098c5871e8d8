package handler

import (
	"encoding/json"
	"strings"

	"socialkyc/pkg/validation"
)

// ConfirmRequest finishes an OAuth flow on the redirect page.
type ConfirmRequest struct {
	Code   string `json:"code" validate:"required,max=2048"`
	Secret string `json:"secret" validate:"required,numeric,max=64"`
}

func (r *ConfirmRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
	r.Secret = strings.TrimSpace(r.Secret)
}

func (r *ConfirmRequest) Validate() error {
	return validation.Validate(r)
}

type EmailSendRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Lang  string `json:"lang" validate:"omitempty,oneof=en de"`
}

func (r *EmailSendRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Lang = strings.ToLower(strings.TrimSpace(r.Lang))
}

func (r *EmailSendRequest) Validate() error {
	return validation.Validate(r)
}

// EmailConfirmRequest carries the key from the confirmation link.
type EmailConfirmRequest struct {
	Secret string `json:"secret" validate:"required,max=4096"`
}

func (r *EmailConfirmRequest) Normalize() {
	r.Secret = strings.TrimSpace(r.Secret)
}

func (r *EmailConfirmRequest) Validate() error {
	return validation.Validate(r)
}

// TelegramConfirmRequest carries the login widget payload, inline or as a
// JSON string.
type TelegramConfirmRequest struct {
	JSON   json.RawMessage `json:"json" validate:"required,max=4096"`
	Secret string          `json:"secret" validate:"required,numeric,max=64"`
}

func (r *TelegramConfirmRequest) Normalize() {
	r.Secret = strings.TrimSpace(r.Secret)
}

func (r *TelegramConfirmRequest) Validate() error {
	return validation.Validate(r)
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type EmailConfirmResponse struct {
	Email string `json:"email"`
}
