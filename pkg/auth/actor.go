package auth

import (
	"fmt"

	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
)

// Actor is the authenticated admin performing a request. Controllers pass it
// explicitly to services; nothing reads it from package state.
type Actor struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	RoleID    string `json:"role_id"`
	RoleName  string `json:"role_name"`
	DarkMode  bool   `json:"dark_mode"`
	SessionID string `json:"-"`

	permissions map[enums.Permission]struct{}
}

type ActorInput struct {
	UserID      string
	Email       string
	Name        string
	RoleID      string
	RoleName    string
	Permissions []enums.Permission
	DarkMode    bool
	SessionID   string
}

// NewActor drops unknown permissions.
func NewActor(in ActorInput) Actor {
	perms := make(map[enums.Permission]struct{}, len(in.Permissions))
	for _, p := range in.Permissions {
		if p.IsValid() {
			perms[p] = struct{}{}
		}
	}
	return Actor{
		UserID:      in.UserID,
		Email:       in.Email,
		Name:        in.Name,
		RoleID:      in.RoleID,
		RoleName:    in.RoleName,
		DarkMode:    in.DarkMode,
		SessionID:   in.SessionID,
		permissions: perms,
	}
}

// SystemActor is used by workers and the CLI.
func SystemActor(name string) Actor {
	return NewActor(ActorInput{UserID: "system", Name: name, Permissions: enums.AllPermissions()})
}

func (a Actor) IsZero() bool {
	return a.UserID == ""
}

func (a Actor) Can(p enums.Permission) bool {
	_, ok := a.permissions[p]
	return ok
}

// Permissions returns the granted permissions in canonical order.
func (a Actor) Permissions() []enums.Permission {
	out := make([]enums.Permission, 0, len(a.permissions))
	for _, p := range enums.AllPermissions() {
		if a.Can(p) {
			out = append(out, p)
		}
	}
	return out
}

// Require returns a forbidden error unless the actor holds p.
func (a Actor) Require(p enums.Permission) error {
	if a.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !a.Can(p) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("missing permission %s", p))
	}
	return nil
}
