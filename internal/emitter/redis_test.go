package emitter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airguitar/internal/gesture"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisEmitter_StoresLastEvent(t *testing.T) {
	mr, client := newMiniredis(t)
	e := NewRedisEmitter(client, "band", nil)

	require.NoError(t, e.Emit(context.Background(), ChordEvent(gesture.CMajor, eventTime)))
	require.NoError(t, e.Emit(context.Background(), ChordEvent(gesture.FMajor, eventTime)))

	raw, err := mr.Get(e.LastKey(KindChord))
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.Equal(t, gesture.FMajor, ev.Chord)
	assert.False(t, mr.Exists(e.LastKey(KindStrum)))
}

func TestRedisEmitter_Publishes(t *testing.T) {
	_, client := newMiniredis(t)
	e := NewRedisEmitter(client, "band", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "band")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription confirmation")

	require.NoError(t, e.Emit(ctx, StrumEvent(gesture.Downstroke, eventTime)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"strum","direction":"downstroke","time":"2024-05-01T12:00:00Z"}`, msg.Payload)
}

func TestRedisEmitter_Errors(t *testing.T) {
	mr, client := newMiniredis(t)
	e := NewRedisEmitter(client, "", nil)

	assert.Equal(t, "airguitar:last:chord", e.LastKey(KindChord))
	assert.ErrorIs(t, e.Emit(context.Background(), ChordEvent(gesture.ChordUnknown, eventTime)), ErrInvalidEvent)

	mr.Close()
	assert.Error(t, e.Emit(context.Background(), ChordEvent(gesture.CMajor, eventTime)))
}

func TestDialRedis(t *testing.T) {
	mr, _ := newMiniredis(t)

	e, err := DialRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Channel: "band"}, nil)
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, "redis", e.Name())

	_, err = DialRedis(context.Background(), RedisConfig{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
