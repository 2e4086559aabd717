package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims are the parts of the bearer token the client reads. The signature is not
// verified: the key lives on the server, which rejects forged tokens with a 401.
type claims struct {
	Subject string
	Expiry  *time.Time
}

func decodeToken(token string) (*claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if strings.TrimSpace(registered.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}

	c := &claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		exp := registered.ExpiresAt.Time
		c.Expiry = &exp
	}

	return c, nil
}

// expired compares at millisecond precision. A token without exp never expires.
func (c *claims) expired(now time.Time) bool {
	if c.Expiry == nil {
		return false
	}
	return c.Expiry.UnixMilli() < now.UnixMilli()
}
