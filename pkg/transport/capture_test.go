package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureRecordsSentData(t *testing.T) {
	c := &Capture{}
	assert.True(t, c.Send([]byte("configure\n")))
	assert.True(t, c.Send([]byte("commit\n")))
	assert.Equal(t, []string{"configure\n", "commit\n"}, c.Sent())
}

func TestCaptureSetFailStopsAcceptingSends(t *testing.T) {
	c := &Capture{}
	assert.True(t, c.Send([]byte("show version\n")))
	c.SetFail(true)
	assert.False(t, c.Send([]byte("show clock\n")))
	assert.Equal(t, []string{"show version\n"}, c.Sent())
}

func TestCaptureResetClearsTranscriptNotFailState(t *testing.T) {
	c := &Capture{}
	c.Send([]byte("a\n"))
	c.SetFail(true)
	c.Reset()
	assert.Empty(t, c.Sent())
	assert.False(t, c.Send([]byte("b\n")))
}
