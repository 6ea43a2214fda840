package querycache

import (
	"strings"
	"time"
)

// Key identifies a cached query: a resource name plus optional parameters
// such as a time range. A Key with empty Params used for invalidation matches
// every entry of the resource.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a Key; params are joined with "|".
func NewKey(resource string, params ...string) Key {
	clean := make([]string, 0, len(params))
	for _, p := range params {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return Key{Resource: strings.TrimSpace(resource), Params: strings.Join(clean, "|")}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + ":" + k.Params
}

func (k Key) covers(other Key) bool {
	if k.Resource != other.Resource {
		return false
	}
	return k.Params == "" || k.Params == other.Params
}

// Policy controls how long an entry is served without refetching (FreshFor)
// and how long it may be served at all (KeepFor).
type Policy struct {
	FreshFor time.Duration
	KeepFor  time.Duration
}

// DefaultPolicy is used when a cache is built without one.
var DefaultPolicy = Policy{FreshFor: 30 * time.Second, KeepFor: 5 * time.Minute}

// Normalize enforces KeepFor >= FreshFor and non-negative durations.
func (p Policy) Normalize() Policy {
	if p.FreshFor < 0 {
		p.FreshFor = 0
	}
	if p.KeepFor < p.FreshFor {
		p.KeepFor = p.FreshFor
	}
	return p
}

func (p Policy) isZero() bool {
	return p.FreshFor == 0 && p.KeepFor == 0
}

type freshness int

const (
	fresh freshness = iota
	stale
	expired
)
