package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestron-orchestrator/netcli/internal/config"
)

func TestBuildClientConfigRequiresAnAuthMethod(t *testing.T) {
	cfg := config.DeviceConfig{Host: "10.0.0.1", Username: "admin"}
	sshCfg := config.SSHConfig{ConnectTimeout: 5 * time.Second}

	_, err := buildClientConfig(cfg, sshCfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authentication method")
}

func TestBuildClientConfigRejectsStrictHostKeyCheckingWithoutKnownHosts(t *testing.T) {
	cfg := config.DeviceConfig{Host: "10.0.0.1", Username: "admin", Password: "secret", StrictHostKeyChecking: true}
	sshCfg := config.SSHConfig{ConnectTimeout: 5 * time.Second}

	_, err := buildClientConfig(cfg, sshCfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict host key checking")
}

func TestBuildClientConfigPasswordAuth(t *testing.T) {
	cfg := config.DeviceConfig{Host: "10.0.0.1", Username: "admin", Password: "secret"}
	sshCfg := config.SSHConfig{ConnectTimeout: 5 * time.Second}

	clientConfig, err := buildClientConfig(cfg, sshCfg)
	require.NoError(t, err)
	assert.Equal(t, "admin", clientConfig.User)
	assert.Len(t, clientConfig.Auth, 2)
}

func TestBuildClientConfigKeyAuthMissingFile(t *testing.T) {
	cfg := config.DeviceConfig{Host: "10.0.0.1", Username: "admin", KeyPath: "/nonexistent/id_rsa"}
	sshCfg := config.SSHConfig{ConnectTimeout: 5 * time.Second}

	_, err := buildClientConfig(cfg, sshCfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load key")
}
