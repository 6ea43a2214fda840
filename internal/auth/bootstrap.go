package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/lottodesk-backend/internal/users"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/security"
)

// SuperAdminRole is the system role holding every permission.
const SuperAdminRole = "Super Admin"

type systemRole struct {
	name        string
	description string
	permissions []enums.Permission
}

func systemRoles() []systemRole {
	var readOnly []enums.Permission
	for _, p := range enums.AllPermissions() {
		if strings.HasSuffix(string(p), ":read") {
			readOnly = append(readOnly, p)
		}
	}
	operator := append(append([]enums.Permission(nil), readOnly...),
		enums.PermissionVendorsWrite,
		enums.PermissionGamesWrite,
		enums.PermissionWinnersWrite,
		enums.PermissionReportsWrite,
	)
	return []systemRole{
		{name: SuperAdminRole, description: "Full access to the console", permissions: enums.AllPermissions()},
		{name: "Operator", description: "Runs vendors, games and payouts", permissions: operator},
		{name: "Viewer", description: "Read-only access", permissions: readOnly},
	}
}

func permissionList(perms []enums.Permission) dbtypes.StringList {
	out := make(dbtypes.StringList, 0, len(perms))
	for _, p := range enums.AllPermissions() {
		for _, want := range perms {
			if p == want {
				out = append(out, string(p))
				break
			}
		}
	}
	return out
}

// SeedSystemRoles creates the built-in roles and resets their permissions.
// It returns role ids by name.
func SeedSystemRoles(ctx context.Context, backend *docstore.Backend) (map[string]string, error) {
	roles := docstore.For[models.Role](backend)
	ids := make(map[string]string)
	for _, def := range systemRoles() {
		perms := permissionList(def.permissions)
		existing, err := roles.List(ctx, docstore.Where("name", def.name))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup role "+def.name)
		}
		if len(existing) > 0 {
			id := existing[0].ID
			if err := roles.Update(ctx, id, map[string]any{"permissions": perms, "is_system": true}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role "+def.name)
			}
			ids[def.name] = id
			continue
		}
		id, err := roles.Create(ctx, &models.Role{
			Name:        def.name,
			Description: def.description,
			Permissions: perms,
			IsSystem:    true,
		})
		if err != nil {
			return nil, docstore.Classify(err, "role")
		}
		ids[def.name] = id
	}
	return ids, nil
}

// BootstrapAdmin seeds the system roles and creates an active super admin.
// It refuses to overwrite an existing account.
func BootstrapAdmin(ctx context.Context, backend *docstore.Backend, password config.PasswordConfig, req BootstrapRequest) (*users.UserDTO, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if err := security.CheckPasswordStrength(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "weak password")
	}

	repo := users.NewRepository(backend)
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	roleIDs, err := SeedSystemRoles(ctx, backend)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(req.Password, password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		RoleID:       roleIDs[SuperAdminRole],
		Status:       enums.UserStatusActive,
	}
	if _, err := repo.Collection().Create(ctx, user); err != nil {
		return nil, docstore.Classify(err, "user")
	}
	dto := users.FromModel(*user)
	return &dto, nil
}
