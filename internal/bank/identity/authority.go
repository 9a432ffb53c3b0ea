package identity

import (
	"fmt"
	"strings"
)

const realmDelimiter = "/realms/"

// Authority describes the provider endpoints derived from a configured
// authority URL of the form <serverBase>/realms/<realm>.
type Authority struct {
	ServerBase string
	Realm      string
}

// ParseAuthority splits the configured authority URL on its realm
// delimiter. The URL must contain exactly one realm segment with a
// non-empty realm. Validation happens before any network activity.
func ParseAuthority(raw string) (Authority, error) {
	trimmed := strings.TrimRight(raw, "/")

	if strings.Count(trimmed, realmDelimiter) != 1 {
		return Authority{}, &Error{
			Kind: KindConfiguration,
			Step: StepConfig,
			Err:  fmt.Errorf("authority %q must be of the form <serverBase>/realms/<realm>", raw),
		}
	}

	parts := strings.SplitN(trimmed, realmDelimiter, 2)
	if parts[0] == "" || parts[1] == "" {
		return Authority{}, &Error{
			Kind: KindConfiguration,
			Step: StepConfig,
			Err:  fmt.Errorf("authority %q has an empty server base or realm", raw),
		}
	}

	return Authority{ServerBase: parts[0], Realm: parts[1]}, nil
}

func (a Authority) String() string {
	return a.ServerBase + realmDelimiter + a.Realm
}

// TokenURL is the OpenID Connect token endpoint.
func (a Authority) TokenURL() string {
	return a.String() + "/protocol/openid-connect/token"
}

// LogoutURL is the OpenID Connect logout (session revocation) endpoint.
func (a Authority) LogoutURL() string {
	return a.String() + "/protocol/openid-connect/logout"
}

// JWKSURL is the provider's published signing key set.
func (a Authority) JWKSURL() string {
	return a.String() + "/protocol/openid-connect/certs"
}

// UsersURL is the admin endpoint for creating users in the realm.
func (a Authority) UsersURL() string {
	return a.ServerBase + "/admin/realms/" + a.Realm + "/users"
}

// ResetPasswordURL is the admin endpoint for setting a user's password.
func (a Authority) ResetPasswordURL(userID string) string {
	return a.UsersURL() + "/" + userID + "/reset-password"
}
