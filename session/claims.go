package session

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// errMalformedToken is returned by decodeClaims for tokens that do not have
// three dot-separated segments or whose payload is not base64url JSON.
var errMalformedToken = errors.New("session: malformed token")

// Claims is the subset of the backend's JWT payload the portal reads.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// decodeClaims reads the payload segment of token. Neither the header nor
// the signature is looked at: the portal never holds the backend's signing
// key, and the backend answers 401 for forged or expired credentials.
func decodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errMalformedToken
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.Join(errMalformedToken, err)
	}
	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, errors.Join(errMalformedToken, err)
	}
	return claims, nil
}

// Inspect decodes token the same way the Session Store does and returns the
// claims. It is exposed for diagnostics tooling.
func Inspect(token string) (*Claims, error) {
	return decodeClaims(token)
}
