package email

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "socialkyc/pkg/domain-errors"
)

// linkClaims is the payload of the key carried by a confirmation link.
type linkClaims struct {
	Secret string `json:"secret"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Link is an opened confirmation link key.
type Link struct {
	Secret string
	Email  string
}

// LinkKeys signs and opens confirmation link keys with HMAC-SHA256.
type LinkKeys struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

type LinkKeysOption func(*LinkKeys)

func WithKeyClock(now func() time.Time) LinkKeysOption {
	return func(l *LinkKeys) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLinkKeys(signingKey []byte, ttl time.Duration, opts ...LinkKeysOption) *LinkKeys {
	l := &LinkKeys{signingKey: signingKey, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sign wraps the link secret and the address the mail is sent to.
func (l *LinkKeys) Sign(secret, address string) (string, error) {
	now := l.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, linkClaims{
		Secret: secret,
		Email:  address,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	})
	signed, err := token.SignedString(l.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign link key")
	}
	return signed, nil
}

// Open verifies the key's signature and expiry.
func (l *LinkKeys) Open(key string) (Link, error) {
	if key == "" {
		return Link{}, dErrors.New(dErrors.CodeForbidden, "invalid confirmation link")
	}
	claims := new(linkClaims)
	_, err := jwt.ParseWithClaims(key, claims, func(*jwt.Token) (any, error) {
		return l.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Link{}, dErrors.New(dErrors.CodeForbidden, "confirmation link expired")
		}
		return Link{}, dErrors.New(dErrors.CodeForbidden, "invalid confirmation link")
	}
	if claims.Secret == "" || claims.Email == "" {
		return Link{}, dErrors.New(dErrors.CodeForbidden, "invalid confirmation link")
	}
	return Link{Secret: claims.Secret, Email: claims.Email}, nil
}
