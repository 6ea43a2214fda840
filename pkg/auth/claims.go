package auth

import (
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      string
	Email       string
	Name        string
	RoleID      string
	RoleName    string
	Permissions []enums.Permission
	DarkMode    bool
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to admins.
type AccessTokenClaims struct {
	UserID      string             `json:"user_id"`
	Email       string             `json:"email"`
	Name        string             `json:"name,omitempty"`
	RoleID      string             `json:"role_id"`
	RoleName    string             `json:"role_name,omitempty"`
	Permissions []enums.Permission `json:"permissions"`
	DarkMode    bool               `json:"dark_mode,omitempty"`
	jwt.RegisteredClaims
}

// Actor builds the request context object from verified claims.
func (c *AccessTokenClaims) Actor() Actor {
	return NewActor(ActorInput{
		UserID:      c.UserID,
		Email:       c.Email,
		Name:        c.Name,
		RoleID:      c.RoleID,
		RoleName:    c.RoleName,
		Permissions: c.Permissions,
		DarkMode:    c.DarkMode,
		SessionID:   c.ID,
	})
}
