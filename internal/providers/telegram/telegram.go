// Package telegram confirms Telegram accounts from the signed payload of the
// Telegram login widget.
package telegram

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/providers"
	"socialkyc/internal/session/models"
	dErrors "socialkyc/pkg/domain-errors"
)

const defaultMaxAge = 24 * time.Hour

// Verifier checks login widget payloads signed with the bot token.
type Verifier struct {
	secretKey []byte
	maxAge    time.Duration
	now       func() time.Time
}

type Option func(*Verifier)

func WithMaxAge(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

func New(botToken string, opts ...Option) *Verifier {
	key := sha256.Sum256([]byte(botToken))
	v := &Verifier{secretKey: key[:], maxAge: defaultMaxAge, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) Type() providers.ProviderType {
	return providers.Telegram
}

func (v *Verifier) CType() ctype.CType {
	return ctype.Telegram
}

// Confirm verifies the payload in input.Payload and maps the user fields.
func (v *Verifier) Confirm(_ context.Context, input providers.Input, _ *models.Session) (map[string]any, error) {
	fields, err := decodePayload(input.Payload)
	if err != nil {
		return nil, err
	}
	if err := v.Verify(fields); err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "telegram user id is not a number")
	}
	return map[string]any{
		"First name": fields["first_name"],
		"Last name":  fields["last_name"],
		"Username":   fields["username"],
		"User ID":    userID,
	}, nil
}

// Verify checks the hash field against the other fields and rejects
// payloads older than the maximum age.
func (v *Verifier) Verify(fields map[string]string) error {
	given, err := hex.DecodeString(fields["hash"])
	if err != nil || len(given) != sha256.Size {
		return dErrors.New(dErrors.CodeForbidden, "invalid telegram signature")
	}
	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(DataCheckString(fields)))
	if !hmac.Equal(mac.Sum(nil), given) {
		return dErrors.New(dErrors.CodeForbidden, "invalid telegram signature")
	}

	authDate, err := strconv.ParseInt(fields["auth_date"], 10, 64)
	if err != nil {
		return dErrors.New(dErrors.CodeForbidden, "telegram auth_date is missing")
	}
	if v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
		return dErrors.New(dErrors.CodeForbidden, "telegram login is outdated")
	}
	return nil
}

// Sign returns the hash the login widget would attach to fields. Used by
// tests and local development.
func Sign(botToken string, fields map[string]string) string {
	key := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(DataCheckString(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// DataCheckString joins every field except hash as sorted key=value lines.
func DataCheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + fields[k]
	}
	return strings.Join(lines, "\n")
}

// decodePayload accepts the widget object either inline or as a JSON string
// and renders every value the way the widget signed it.
func decodePayload(raw json.RawMessage) (map[string]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "telegram payload is missing")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "telegram payload is malformed")
		}
		raw = []byte(inner)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "telegram payload is malformed")
	}

	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = strconv.FormatBool(val)
		case nil:
			continue
		default:
			return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("telegram field %q has an unexpected type", k))
		}
	}
	return fields, nil
}
