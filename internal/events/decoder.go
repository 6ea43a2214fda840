package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

type decoderFunc func(payload json.RawMessage) (any, error)

type registryKey struct {
	eventType enums.EventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]decoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]decoderFunc)}
}

// DefaultDecoders registers every current event at EnvelopeVersion.
func DefaultDecoders() *DecoderRegistry {
	r := NewDecoderRegistry()
	Register[VendorApplied](r, enums.EventVendorApplied)
	Register[VendorStatusChanged](r, enums.EventVendorStatusChanged)
	Register[GameStatusChanged](r, enums.EventGameStatusChanged)
	Register[WinnerDeclared](r, enums.EventWinnerDeclared)
	Register[WinnerStatusChanged](r, enums.EventWinnerStatusChanged)
	Register[ReportCreated](r, enums.EventReportCreated)
	Register[AnnouncementRequested](r, enums.EventAnnouncementRequested)
	return r
}

// Register stores a JSON decoder producing *T for the event type.
func Register[T any](r *DecoderRegistry, eventType enums.EventType) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: EnvelopeVersion}] = func(payload json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Decode parses the envelope in data and its typed payload.
func (r *DecoderRegistry) Decode(data []byte) (Envelope, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("decode envelope: %w", err)
	}
	trimmed := bytes.TrimSpace(env.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return env, nil, fmt.Errorf("payload missing for %s", env.Type)
	}

	r.mtx.RLock()
	decoder, ok := r.registry[registryKey{eventType: env.Type, version: env.Version}]
	r.mtx.RUnlock()
	if !ok {
		return env, nil, fmt.Errorf("decoder not registered for %s@v%d", env.Type, env.Version)
	}
	payload, err := decoder(env.Data)
	if err != nil {
		return env, nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return env, payload, nil
}
