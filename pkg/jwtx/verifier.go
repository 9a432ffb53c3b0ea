package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// DefaultLeeway absorbs modest clock drift between us and the provider.
const DefaultLeeway = 2 * time.Minute

// RS256Verifier validates JWTs signed with RS256 against a KeySet.
type RS256Verifier struct {
	keys   *KeySet
	issuer string
	aud    []string
	leeway time.Duration

	// refresh is called when a token references a kid we don't hold,
	// typically after the provider rotated its keys. May be nil.
	refresh func() error
}

// NewVerifierRS256 creates a verifier over a KeySet, enforcing issuer and
// audience when non-empty.
func NewVerifierRS256(keys *KeySet, issuer string, aud []string) *RS256Verifier {
	return &RS256Verifier{keys: keys, issuer: issuer, aud: aud, leeway: DefaultLeeway}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *RS256Verifier) Verify(tokenStr string) (Claims, error) {
	claims, err := v.parse(tokenStr)
	if err != nil {
		// Unknown kid may just mean the provider rotated keys since our
		// last JWKS fetch. Refresh once and retry.
		if errors.Is(err, ErrNoKey) && v.refresh != nil {
			if rerr := v.refresh(); rerr != nil {
				return Claims{}, fmt.Errorf("jwtx: refresh keys: %w", rerr)
			}
			claims, err = v.parse(tokenStr)
		}
		if err != nil {
			return Claims{}, err
		}
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

func (v *RS256Verifier) parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: kid %q: %w", kid, err)
		}
		return pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}
