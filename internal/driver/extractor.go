package driver

import "strings"

// extractOutput implements spec.md §4.4: split on newline, find the first
// line containing the command literal (the echo), discard it and everything
// before, then collect lines up to (not including) the next prompt line.
//
// If the command echo is never found, the whitespace-stripped buffer minus
// any trailing prompt line is returned instead — an implementation-defined
// recovery branch per spec.md §4.4's edge-case note; callers should not
// depend on it beyond "no error".
func extractOutput(buf string, command string, prompts PromptSet) string {
	lines := strings.Split(buf, "\n")

	echoIdx := -1
	for i, line := range lines {
		if strings.Contains(line, command) {
			echoIdx = i
			break
		}
	}

	if echoIdx == -1 {
		return stripTrailingPrompt(lines, prompts)
	}

	var collected []string
	for _, line := range lines[echoIdx+1:] {
		if prompts.matchesLine(line) {
			break
		}
		collected = append(collected, line)
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

func stripTrailingPrompt(lines []string, prompts PromptSet) string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end > 0 && prompts.matchesLine(lines[end-1]) {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[:end], "\n"))
}
