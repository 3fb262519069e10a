package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestron-orchestrator/netcli/internal/client"
	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/driver"
	"github.com/orchestron-orchestrator/netcli/pkg/transport"
)

func newTestRegistry() *client.Registry {
	return client.NewRegistry(config.SSHConfig{}, nil, nil, 0)
}

func TestExecuteCommandUnknownDeviceReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDeviceHandler(newTestRegistry())

	r := gin.New()
	r.POST("/devices/:name/command", h.ExecuteCommand)

	req := httptest.NewRequest(http.MethodPost, "/devices/missing/command", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStateUnknownDeviceReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDeviceHandler(newTestRegistry())

	r := gin.New()
	r.GET("/devices/:name/state", h.State)

	req := httptest.NewRequest(http.MethodGet, "/devices/missing/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteOperationErrorMapsNotReadyTo409(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeOperationError(c, fmt.Errorf("%w - current state: executing_command", driver.ErrNotReady), "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWriteOperationErrorMapsOtherErrorsTo502(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeOperationError(c, fmt.Errorf("transport disconnected"), "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWriteOperationErrorMapsDeadlineExceededTo504(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeOperationError(c, context.DeadlineExceeded, "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestWriteOperationErrorAttachesSessionLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeOperationError(c, fmt.Errorf("commit failed"), "configure\ncommit\n% failed")
	assert.Contains(t, w.Body.String(), "% failed")
}

// busyClient returns a client.Client whose driver is left mid-operation
// (EXECUTING_COMMAND, never given a response), so any further operation
// against it observes driver.ErrNotReady.
func busyClient(t *testing.T) *client.Client {
	t.Helper()
	capt := &transport.Capture{}
	drv, err := driver.New(driver.KindJunos, capt)
	require.NoError(t, err)
	require.NoError(t, drv.Initialize())

	drv.ExecuteCommand(func(error, string) {}, "show version")
	require.Equal(t, driver.StateExecutingCommand, drv.GetState())

	return client.NewConnected(config.DeviceConfig{Name: "r1", Kind: "junos", Host: "10.0.0.1"}, drv, nil, nil, nil)
}

func TestConfigureOnBusyDeviceReturns409NotBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := newTestRegistry()
	registry.Register("r1", busyClient(t))
	h := NewDeviceHandler(registry)

	r := gin.New()
	r.POST("/devices/:name/configure", h.Configure)

	req := httptest.NewRequest(http.MethodPost, "/devices/r1/configure", strings.NewReader(`{"commands":["set x y"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code, "a not-ready precondition error must be 409 regardless of which operation hit it")
}
