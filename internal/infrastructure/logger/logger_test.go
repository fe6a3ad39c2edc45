package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("parcel_id", "abc")

	l.Info("registered", "owner", "0x1")
	l.Warn("publish failed")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "registered", first.Message)
	assert.Equal(t, "abc", first.ContextMap()["parcel_id"])
	assert.Equal(t, "0x1", first.ContextMap()["owner"])
	assert.Equal(t, "abc", logs.All()[1].ContextMap()["parcel_id"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		l.Debug("hello")
	}
	Nop().Error("dropped")
}
