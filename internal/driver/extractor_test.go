package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOutputStripsEchoAndPrompt(t *testing.T) {
	buf := "show version\nJunos: 21.4R1\nModel: mx960\nuser@router>"
	got := extractOutput(buf, "show version", junosPrompts)
	assert.Equal(t, "Junos: 21.4R1\nModel: mx960", got)
}

func TestExtractOutputNoEchoFallsBackToTrimmedBuffer(t *testing.T) {
	buf := "unexpected banner text\nuser@router>"
	got := extractOutput(buf, "show version", junosPrompts)
	assert.Equal(t, "unexpected banner text", got)
}

func TestExtractOutputEmptyResponse(t *testing.T) {
	buf := "show clock\nuser@router>"
	got := extractOutput(buf, "show clock", junosPrompts)
	assert.Equal(t, "", got)
}

func TestPromptSetMatchesLineIgnoresTrailingWhitespace(t *testing.T) {
	assert.True(t, junosPrompts.matchesLine("user@router>   "))
	assert.True(t, junosPrompts.matchesLine("user@router#"))
	assert.False(t, junosPrompts.matchesLine("user@router"))
	assert.False(t, junosPrompts.matchesLine(""))
}

func TestIOSXRPromptsMatchConfigMode(t *testing.T) {
	assert.True(t, iosxrPrompts.matchesLine("RP/0/RP0/CPU0:router#"))
	assert.True(t, iosxrPrompts.matchesLine("RP/0/RP0/CPU0:router(config)#"))
	assert.True(t, iosxrPrompts.matchesLine("RP/0/RP0/CPU0:router(config-if)#"))
	assert.False(t, iosxrPrompts.matchesLine("router#"))
}

func TestContainsPromptScansAllLines(t *testing.T) {
	assert.True(t, junosPrompts.containsPrompt("some output\nmore output\nuser@router>"))
	assert.False(t, junosPrompts.containsPrompt("some output\nmore output\n"))
}
