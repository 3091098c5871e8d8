package telegram

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialkyc/internal/providers"
	dErrors "socialkyc/pkg/domain-errors"
)

const botToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func widgetPayload(t *testing.T, authDate time.Time) map[string]any {
	t.Helper()
	fields := map[string]string{
		"id":         "987654321",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"username":   "ada",
		"photo_url":  "https://t.me/i/userpic/320/ada.jpg",
		"auth_date":  strconv.FormatInt(authDate.Unix(), 10),
	}
	payload := map[string]any{
		"id":         json.Number(fields["id"]),
		"first_name": fields["first_name"],
		"last_name":  fields["last_name"],
		"username":   fields["username"],
		"photo_url":  fields["photo_url"],
		"auth_date":  json.Number(fields["auth_date"]),
		"hash":       Sign(botToken, fields),
	}
	return payload
}

func confirm(t *testing.T, v *Verifier, payload any) (map[string]any, error) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return v.Confirm(context.Background(), providers.Input{Payload: raw}, nil)
}

func TestConfirmValidPayload(t *testing.T) {
	v := New(botToken, WithClock(func() time.Time { return now }))

	contents, err := confirm(t, v, widgetPayload(t, now.Add(-time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"First name": "Ada",
		"Last name":  "Lovelace",
		"Username":   "ada",
		"User ID":    int64(987654321),
	}, contents)
	assert.NoError(t, v.CType().ValidateContents(contents))
}

func TestConfirmAcceptsStringifiedPayload(t *testing.T) {
	v := New(botToken, WithClock(func() time.Time { return now }))
	inner, err := json.Marshal(widgetPayload(t, now))
	require.NoError(t, err)

	_, err = confirm(t, v, string(inner))
	assert.NoError(t, err)
}

func TestConfirmRejectsTamperedField(t *testing.T) {
	v := New(botToken, WithClock(func() time.Time { return now }))
	payload := widgetPayload(t, now)
	payload["username"] = "mallory"

	_, err := confirm(t, v, payload)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestConfirmRejectsOtherBot(t *testing.T) {
	v := New("999:other-bot", WithClock(func() time.Time { return now }))

	_, err := confirm(t, v, widgetPayload(t, now))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestConfirmRejectsOutdatedLogin(t *testing.T) {
	v := New(botToken, WithClock(func() time.Time { return now }))

	_, err := confirm(t, v, widgetPayload(t, now.Add(-25*time.Hour)))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.Contains(t, err.Error(), "outdated")

	_, err = confirm(t, v, widgetPayload(t, now.Add(-23*time.Hour)))
	assert.NoError(t, err)
}

func TestConfirmMalformedPayload(t *testing.T) {
	v := New(botToken)
	_, err := v.Confirm(context.Background(), providers.Input{Payload: json.RawMessage(`{`)}, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = v.Confirm(context.Background(), providers.Input{}, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestDataCheckStringSortsAndSkipsHash(t *testing.T) {
	got := DataCheckString(map[string]string{
		"username":  "ada",
		"hash":      "ff",
		"auth_date": "1",
		"id":        "7",
	})
	assert.Equal(t, "auth_date=1\nid=7\nusername=ada", got)
}
