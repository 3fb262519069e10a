package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orchestron-orchestrator/netcli/internal/driver"
)

func TestKindForRecognizesConfiguredNames(t *testing.T) {
	k, err := kindFor("junos")
	assert.NoError(t, err)
	assert.Equal(t, driver.KindJunos, k)

	k, err = kindFor("iosxr")
	assert.NoError(t, err)
	assert.Equal(t, driver.KindIOSXR, k)
}

func TestKindForRejectsUnknownName(t *testing.T) {
	_, err := kindFor("eos")
	assert.ErrorIs(t, err, driver.ErrUnsupportedDeviceKind)
}
