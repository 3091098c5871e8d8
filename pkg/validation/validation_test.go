package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "socialkyc/pkg/domain-errors"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Secret string `json:"secret" validate:"omitempty,numeric"`
	Lang   string `json:"lang" validate:"omitempty,oneof=en de"`
	Code   string `json:"code" validate:"omitempty,notblank"`
	Hash   string `json:"cTypeHash" validate:"omitempty,hexhash"`
}

func TestValidate(t *testing.T) {
	valid := sample{Email: "a@example.com", Secret: "0123", Lang: "en"}

	tests := []struct {
		name    string
		mutate  func(*sample)
		wantMsg string
	}{
		{"missing email", func(s *sample) { s.Email = "" }, "email is required"},
		{"bad email", func(s *sample) { s.Email = "nope" }, "email must be a valid email"},
		{"non-numeric secret", func(s *sample) { s.Secret = "12ab" }, "secret must contain digits only"},
		{"unsupported lang", func(s *sample) { s.Lang = "fr" }, "lang must be one of [en de]"},
		{"blank code", func(s *sample) { s.Code = "   " }, "code must not be blank"},
		{"malformed hash", func(s *sample) { s.Hash = "0x12" }, "cTypeHash must be a 0x-prefixed 32-byte hex hash"},
	}

	assert.NoError(t, Validate(valid))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := Validate(s)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "invalid request body", ErrorMessage(errors.New("not a validator error")))
}
