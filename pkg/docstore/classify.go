package docstore

import (
	"errors"

	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
)

// Classify maps a store error onto an API error code: missing documents become
// NOT_FOUND, unique violations CONFLICT, anything else DEPENDENCY_ERROR.
func Classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, what+" not found")
	case errors.Is(err, ErrDuplicate):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, what+" already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store "+what)
	}
}
