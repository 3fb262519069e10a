package statecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestron-orchestrator/netcli/internal/config"
)

func TestNewWithoutHostReturnsNoopPublisher(t *testing.T) {
	pub, err := New(config.RedisConfig{})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), Snapshot{
		DeviceKind: "junos",
		Host:       "10.0.0.1",
		State:      "ready",
		UpdatedAt:  time.Now(),
	})
	assert.NoError(t, err)
	assert.NoError(t, pub.Close())
}
