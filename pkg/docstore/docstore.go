// Package docstore is the document store boundary every resource goes
// through. Records are addressed by string ids; filtering beyond equality and
// upper bounds, sorting and paging are done by callers in memory.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("docstore: document not found")
	ErrDuplicate = errors.New("docstore: duplicate document")
)

// Document is implemented by stored records.
type Document interface {
	DocumentID() string
	AssignID(id string)
	Touch(now time.Time)
}

// Named lets a record choose its table / collection name.
type Named interface {
	TableName() string
}

// Collection is the per-resource store surface.
type Collection[T any] interface {
	List(ctx context.Context, filter Filter) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, doc *T) (string, error)
	Update(ctx context.Context, id string, partial map[string]any) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter Filter) (int64, error)
	UpdateWhere(ctx context.Context, filter Filter, partial map[string]any) (int64, error)
	DeleteWhere(ctx context.Context, filter Filter) (int64, error)
}

// Filter matches documents by field equality and strict upper bounds.
// Field names are storage names (snake_case); "id" addresses the identifier.
type Filter struct {
	Eq map[string]any
	Lt map[string]any
}

// All matches every document.
var All = Filter{}

func Where(field string, value any) Filter {
	return All.And(field, value)
}

// And returns a copy of f with an extra equality condition.
func (f Filter) And(field string, value any) Filter {
	out := f.clone()
	if out.Eq == nil {
		out.Eq = map[string]any{}
	}
	out.Eq[field] = value
	return out
}

// Before returns a copy of f requiring field < value.
func (f Filter) Before(field string, value any) Filter {
	out := f.clone()
	if out.Lt == nil {
		out.Lt = map[string]any{}
	}
	out.Lt[field] = value
	return out
}

func (f Filter) clone() Filter {
	out := Filter{}
	if f.Eq != nil {
		out.Eq = make(map[string]any, len(f.Eq))
		for k, v := range f.Eq {
			out.Eq[k] = v
		}
	}
	if f.Lt != nil {
		out.Lt = make(map[string]any, len(f.Lt))
		for k, v := range f.Lt {
			out.Lt[k] = v
		}
	}
	return out
}

var fieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (f Filter) validate() error {
	for _, fields := range []map[string]any{f.Eq, f.Lt} {
		for name := range fields {
			if !fieldNameRe.MatchString(name) {
				return fmt.Errorf("docstore: invalid field name %q", name)
			}
		}
	}
	return nil
}

func validatePartial(partial map[string]any) error {
	if len(partial) == 0 {
		return errors.New("docstore: empty update")
	}
	for name := range partial {
		if !fieldNameRe.MatchString(name) {
			return fmt.Errorf("docstore: invalid field name %q", name)
		}
		if name == "id" {
			return errors.New("docstore: id is immutable")
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func prepare(doc any, now time.Time) (string, error) {
	d, ok := doc.(Document)
	if !ok {
		return "", fmt.Errorf("docstore: %T does not implement Document", doc)
	}
	if d.DocumentID() == "" {
		d.AssignID(uuid.NewString())
	}
	d.Touch(now)
	return d.DocumentID(), nil
}

func withUpdatedAt(partial map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(partial)+1)
	for k, v := range partial {
		out[k] = v
	}
	if _, ok := out["updated_at"]; !ok {
		out["updated_at"] = now
	}
	return out
}

func tableName[T any]() string {
	var zero T
	if n, ok := any(&zero).(Named); ok {
		return n.TableName()
	}
	if n, ok := any(zero).(Named); ok {
		return n.TableName()
	}
	return ""
}
