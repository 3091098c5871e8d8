package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"
	"golang.org/x/oauth2/twitch"

	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/providers"
)

var errIncompleteProfile = errors.New("profile is missing required fields")

// Descriptors returns the production descriptor of every OAuth provider.
func Descriptors() map[providers.ProviderType]Descriptor {
	return map[providers.ProviderType]Descriptor{
		providers.Discord:  Discord(),
		providers.GitHub:   GitHub(),
		providers.Twitch:   Twitch(),
		providers.LinkedIn: LinkedIn(),
		providers.YouTube:  YouTube(),
	}
}

func Discord() Descriptor {
	return Descriptor{
		Type:  providers.Discord,
		CType: ctype.Discord,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://discord.com/oauth2/authorize",
			TokenURL:  "https://discord.com/api/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes:     []string{"identify"},
		AuthParams: map[string]string{"prompt": "consent"},
		ProfileURL: "https://discord.com/api/users/@me",
		Subject:    "User ID",
		MapProfile: func(body []byte) (map[string]any, error) {
			var p struct {
				ID            string `json:"id"`
				Username      string `json:"username"`
				Discriminator string `json:"discriminator"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			if p.ID == "" || p.Username == "" {
				return nil, errIncompleteProfile
			}
			return map[string]any{
				"Username":      p.Username,
				"Discriminator": p.Discriminator,
				"User ID":       p.ID,
			}, nil
		},
		RevokeURL:        "https://discord.com/api/oauth2/token/revoke",
		NewRevokeRequest: formRevocation(true),
	}
}

func GitHub() Descriptor {
	return Descriptor{
		Type:       providers.GitHub,
		CType:      ctype.GitHub,
		Endpoint:   github.Endpoint,
		ProfileURL: "https://api.github.com/user",
		Subject:    "User ID",
		ProfileHeaders: func(h http.Header, _ Credentials) {
			h.Set("Accept", "application/vnd.github+json")
		},
		MapProfile: func(body []byte) (map[string]any, error) {
			var p struct {
				ID    int64  `json:"id"`
				Login string `json:"login"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			if p.ID == 0 || p.Login == "" {
				return nil, errIncompleteProfile
			}
			return map[string]any{
				"Username": p.Login,
				"User ID":  strconv.FormatInt(p.ID, 10),
			}, nil
		},
		// DELETE /applications/{client_id}/grant revokes the grant with basic auth.
		RevokeURL: "https://api.github.com/applications/{client_id}/grant",
		NewRevokeRequest: func(ctx context.Context, revokeURL string, creds Credentials, token string) (*http.Request, error) {
			target := strings.ReplaceAll(revokeURL, "{client_id}", url.PathEscape(creds.ClientID))
			body, err := json.Marshal(map[string]string{"access_token": token})
			if err != nil {
				return nil, err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/vnd.github+json")
			return req, nil
		},
	}
}

func Twitch() Descriptor {
	return Descriptor{
		Type:  providers.Twitch,
		CType: ctype.Twitch,
		Endpoint: oauth2.Endpoint{
			AuthURL:   twitch.Endpoint.AuthURL,
			TokenURL:  twitch.Endpoint.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		ProfileURL: "https://api.twitch.tv/helix/users",
		Subject:    "User ID",
		ProfileHeaders: func(h http.Header, creds Credentials) {
			h.Set("Client-Id", creds.ClientID)
		},
		MapProfile: func(body []byte) (map[string]any, error) {
			var p struct {
				Data []struct {
					ID    string `json:"id"`
					Login string `json:"login"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			if len(p.Data) == 0 || p.Data[0].ID == "" {
				return nil, errIncompleteProfile
			}
			return map[string]any{
				"Username": p.Data[0].Login,
				"User ID":  p.Data[0].ID,
			}, nil
		},
		RevokeURL:        "https://id.twitch.tv/oauth2/revoke",
		NewRevokeRequest: formRevocation(false),
	}
}

func LinkedIn() Descriptor {
	return Descriptor{
		Type:       providers.LinkedIn,
		CType:      ctype.LinkedIn,
		Endpoint:   linkedin.Endpoint,
		Scopes:     []string{"openid", "profile"},
		ProfileURL: "https://api.linkedin.com/v2/userinfo",
		Subject:    "Profile ID",
		MapProfile: func(body []byte) (map[string]any, error) {
			var p struct {
				Sub  string `json:"sub"`
				Name string `json:"name"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			if p.Sub == "" {
				return nil, errIncompleteProfile
			}
			return map[string]any{
				"Name":       p.Name,
				"Profile ID": p.Sub,
			}, nil
		},
	}
}

func YouTube() Descriptor {
	return Descriptor{
		Type:       providers.YouTube,
		CType:      ctype.YouTube,
		Endpoint:   google.Endpoint,
		Scopes:     []string{"https://www.googleapis.com/auth/youtube.readonly"},
		ProfileURL: "https://www.googleapis.com/youtube/v3/channels?part=snippet&mine=true",
		Subject:    "Channel ID",
		MapProfile: func(body []byte) (map[string]any, error) {
			var p struct {
				Items []struct {
					ID      string `json:"id"`
					Snippet struct {
						Title string `json:"title"`
					} `json:"snippet"`
				} `json:"items"`
			}
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			if len(p.Items) == 0 {
				return nil, providers.NewProviderError(providers.ErrorNotFound, providers.YouTube, "no YouTube channel found", nil)
			}
			return map[string]any{
				"Channel Name": p.Items[0].Snippet.Title,
				"Channel ID":   p.Items[0].ID,
			}, nil
		},
		RevokeURL: "https://oauth2.googleapis.com/revoke",
		NewRevokeRequest: func(ctx context.Context, revokeURL string, _ Credentials, token string) (*http.Request, error) {
			form := url.Values{"token": {token}}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req, nil
		},
	}
}

// formRevocation posts token and client_id as a form, plus client_secret
// when withSecret is set.
func formRevocation(withSecret bool) func(context.Context, string, Credentials, string) (*http.Request, error) {
	return func(ctx context.Context, revokeURL string, creds Credentials, token string) (*http.Request, error) {
		form := url.Values{
			"token":     {token},
			"client_id": {creds.ClientID},
		}
		if withSecret {
			form.Set("client_secret", creds.ClientSecret)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
}
