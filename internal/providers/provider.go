// Package providers turns proof of control over an external identity into a
// confirmed claim on the browser session that is actively held open.
//
// Each identity provider implements Confirmer. The Dispatcher resolves the
// single-use link secret, asks the provider for the claim contents and merges
// the confirmed claim into the current session.
package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
)

// ProviderType names an identity provider.
type ProviderType string

const (
	Discord  ProviderType = "discord"
	GitHub   ProviderType = "github"
	Twitch   ProviderType = "twitch"
	LinkedIn ProviderType = "linkedin"
	YouTube  ProviderType = "youtube"
	Email    ProviderType = "email"
	Telegram ProviderType = "telegram"
)

// OAuthTypes lists the providers confirmed through an OAuth code exchange.
var OAuthTypes = []ProviderType{Discord, GitHub, Twitch, LinkedIn, YouTube}

// ParseProviderType validates a provider name from a URL or config key.
func ParseProviderType(s string) (ProviderType, error) {
	switch t := ProviderType(s); t {
	case Discord, GitHub, Twitch, LinkedIn, YouTube, Email, Telegram:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown provider %q", s))
}

func (t ProviderType) String() string {
	return string(t)
}

// Input carries everything a confirmation request may hold. Providers read
// the fields they understand.
type Input struct {
	// SessionID is the session of the tab making the request. The confirmed
	// claim is merged into it.
	SessionID id.SessionID
	// Secret links back to the session that started the flow.
	Secret string
	// Code is the OAuth authorization code.
	Code string
	// Key is a signed link key that wraps the secret (email).
	Key string
	// Payload is provider-specific signed data (Telegram login widget).
	Payload json.RawMessage
}

// Confirmer proves the user controls an account at one provider and returns
// the claim contents for that provider's cType.
type Confirmer interface {
	Type() ProviderType
	CType() ctype.CType
	// Confirm is called after the secret was resolved. linked is the session
	// the secret was issued to.
	Confirm(ctx context.Context, input Input, linked *models.Session) (map[string]any, error)
}

// Redirector is implemented by providers that start with a browser redirect.
type Redirector interface {
	AuthCodeURL(state string) string
}

// KeyOpener is implemented by providers whose secret arrives wrapped in a
// signed key instead of in the clear.
type KeyOpener interface {
	OpenKey(key string) (secret string, err error)
}
