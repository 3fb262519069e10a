package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestNormalizeDeviceOutputLeavesValidUTF8Untouched(t *testing.T) {
	in := []byte("show version\r\nJunos: 21.4R1\r\n")
	assert.Equal(t, in, NormalizeDeviceOutput(in))
}

func TestNormalizeDeviceOutputLeavesEmptyUntouched(t *testing.T) {
	assert.Nil(t, NormalizeDeviceOutput(nil))
}

func TestNormalizeDeviceOutputDecodesGBK(t *testing.T) {
	original := "interface description: 核心交换机"
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(original)
	if err != nil {
		t.Fatalf("failed to build GBK fixture: %v", err)
	}

	got := NormalizeDeviceOutput([]byte(encoded))
	assert.Equal(t, original, string(got))
}
