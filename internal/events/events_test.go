package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripThroughDecoder(t *testing.T) {
	actor := auth.NewActor(auth.ActorInput{UserID: "u1", Name: "Ops"})
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	env, err := NewEnvelope(enums.EventVendorStatusChanged, actor, now, VendorStatusChanged{
		VendorID: "v1",
		Name:     "Corner Store",
		From:     enums.VendorStatusPending,
		To:       enums.VendorStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, "vendor_status_changed", env.Attributes()[AttrEventType])
	assert.Equal(t, "1", env.Attributes()[AttrVersion])
	require.NotNil(t, env.Actor)
	assert.Equal(t, "u1", env.Actor.UserID)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, payload, err := DefaultDecoders().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)
	changed, ok := payload.(*VendorStatusChanged)
	require.True(t, ok, "unexpected payload %T", payload)
	assert.Equal(t, enums.VendorStatusApproved, changed.To)
}

func TestNewEnvelopeRejectsUnknownType(t *testing.T) {
	_, err := NewEnvelope("vendor_exploded", auth.Actor{}, time.Now(), struct{}{})
	assert.Error(t, err)
}

func TestDecodeFailures(t *testing.T) {
	reg := DefaultDecoders()

	_, _, err := reg.Decode([]byte("not json"))
	assert.Error(t, err)

	_, _, err = reg.Decode([]byte(`{"version":1,"eventId":"x","type":"winner_declared","data":null}`))
	assert.Error(t, err)

	_, _, err = reg.Decode([]byte(`{"version":9,"eventId":"x","type":"winner_declared","data":{}}`))
	assert.ErrorContains(t, err, "decoder not registered")
}

func TestSystemActorHasNoRef(t *testing.T) {
	env, err := NewEnvelope(enums.EventReportCreated, auth.Actor{}, time.Now(), ReportCreated{ReportID: "r1"})
	require.NoError(t, err)
	assert.Nil(t, env.Actor)
}
