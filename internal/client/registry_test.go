package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/driver"
	"github.com/orchestron-orchestrator/netcli/pkg/transport"
)

func TestRegistryConnectRejectsUnsupportedKindWithoutDialing(t *testing.T) {
	r := NewRegistry(config.SSHConfig{ConnectTimeout: time.Second}, nil, nil, time.Second)

	err := r.Connect(context.Background(), config.DeviceConfig{Name: "r1", Kind: "eos", Host: "10.0.0.1"})
	assert.Error(t, err)

	_, ok := r.Get("r1")
	assert.False(t, ok)
}

func TestRegistryConnectAllAggregatesFirstError(t *testing.T) {
	r := NewRegistry(config.SSHConfig{ConnectTimeout: time.Second}, nil, nil, time.Second)

	targets := []config.DeviceConfig{
		{Name: "bad1", Kind: "eos", Host: "10.0.0.1"},
		{Name: "bad2", Kind: "nxos", Host: "10.0.0.2"},
	}

	err := r.ConnectAll(context.Background(), targets)
	assert.Error(t, err)

	_, ok := r.Get("bad1")
	assert.False(t, ok)
	_, ok = r.Get("bad2")
	assert.False(t, ok)
}

func TestRegistryGetUnknownDevice(t *testing.T) {
	r := NewRegistry(config.SSHConfig{}, nil, nil, time.Second)
	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRegisterMakesAClientDiscoverableByName(t *testing.T) {
	r := NewRegistry(config.SSHConfig{}, nil, nil, time.Second)

	capt := &transport.Capture{}
	drv, err := driver.New(driver.KindJunos, capt)
	require.NoError(t, err)
	require.NoError(t, drv.Initialize())

	c := NewConnected(config.DeviceConfig{Name: "r1", Kind: "junos", Host: "10.0.0.1"}, drv, nil, nil, nil)
	r.Register("r1", c)

	got, ok := r.Get("r1")
	assert.True(t, ok)
	assert.Same(t, c, got)
}
