// Package identity holds the normalized authenticated-user shape, OIDC claim mapping and
// role-based access predicates.
package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleGuest     = "guest"
)

// ExpiryBuffer is how far ahead of exp a token already counts as expired.
const ExpiryBuffer = 30 * time.Second

type AuthUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	Token string   `json:"-"`
}

type UserProfile struct {
	AuthUser
	Username      string         `json:"username,omitempty"`
	FirstName     string         `json:"firstName,omitempty"`
	LastName      string         `json:"lastName,omitempty"`
	AvatarURL     string         `json:"avatarUrl,omitempty"`
	EmailVerified *bool          `json:"emailVerified,omitempty"`
	CreatedAt     string         `json:"createdAt,omitempty"`
	LastLoginAt   string         `json:"lastLoginAt,omitempty"`
	Preferences   map[string]any `json:"preferences,omitempty"`
}

type RoleSet struct {
	Roles []string `json:"roles"`
}

// TokenClaims is the OIDC claim set issued by Keycloak-style providers.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email             string             `json:"email,omitempty"`
	EmailVerified     *bool              `json:"email_verified,omitempty"`
	Name              string             `json:"name,omitempty"`
	GivenName         string             `json:"given_name,omitempty"`
	FamilyName        string             `json:"family_name,omitempty"`
	PreferredUsername string             `json:"preferred_username,omitempty"`
	RealmAccess       *RoleSet           `json:"realm_access,omitempty"`
	ResourceAccess    map[string]RoleSet `json:"resource_access,omitempty"`
}

func HasRole(user *AuthUser, role string) bool {
	if user == nil {
		return false
	}
	for _, r := range user.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func HasAnyRole(user *AuthUser, roles []string) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if HasRole(user, role) {
			return true
		}
	}
	return false
}

// HasAllRoles is vacuously true for an empty role list, except for a nil user.
func HasAllRoles(user *AuthUser, roles []string) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if !HasRole(user, role) {
			return false
		}
	}
	return true
}

func IsAdmin(user *AuthUser) bool {
	return HasRole(user, RoleAdmin)
}

// UserFromTokenClaims maps claims onto AuthUser. Missing optional claims become
// empty values.
func UserFromTokenClaims(claims TokenClaims, token string) AuthUser {
	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}

	roles := []string{}
	if claims.RealmAccess != nil && claims.RealmAccess.Roles != nil {
		roles = append(roles, claims.RealmAccess.Roles...)
	}

	return AuthUser{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  name,
		Roles: roles,
		Token: token,
	}
}

// ProfileFromTokenClaims fills the extended profile fields that claims carry.
func ProfileFromTokenClaims(claims TokenClaims, token string) UserProfile {
	profile := UserProfile{
		AuthUser:      UserFromTokenClaims(claims, token),
		Username:      claims.PreferredUsername,
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
		EmailVerified: claims.EmailVerified,
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSpace(claims.GivenName + " " + claims.FamilyName)
	}
	return profile
}

// ClientRoles returns the roles granted for a single client in resource_access.
func ClientRoles(claims TokenClaims, clientID string) []string {
	set, ok := claims.ResourceAccess[clientID]
	if !ok || set.Roles == nil {
		return []string{}
	}
	return append([]string{}, set.Roles...)
}

// IsTokenExpired treats a missing exp as expired.
func IsTokenExpired(claims TokenClaims) bool {
	return IsTokenExpiredAt(claims, time.Now())
}

func IsTokenExpiredAt(claims TokenClaims, now time.Time) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.UnixMilli() < now.Add(ExpiryBuffer).UnixMilli()
}
