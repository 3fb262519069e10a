package driver

import (
	"regexp"
	"strings"
)

// PromptSet holds the operational- and configuration-mode prompt regexes
// for one vendor, per spec.md §4.3. Both are scanned regardless of the
// driver's current mode, matching the output extractor's needs.
type PromptSet struct {
	Operational *regexp.Regexp
	Config      *regexp.Regexp
}

func (p PromptSet) matchesLine(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return false
	}
	return p.Operational.MatchString(trimmed) || p.Config.MatchString(trimmed)
}

// containsPrompt scans buf line by line (split on '\n', as specified in
// spec.md §4.3) for any non-empty line matching either prompt pattern.
func (p PromptSet) containsPrompt(buf string) bool {
	for _, line := range strings.Split(buf, "\n") {
		if p.matchesLine(line) {
			return true
		}
	}
	return false
}

var junosPrompts = PromptSet{
	Operational: regexp.MustCompile(`^[\w\-.]+@[\w\-.]+>\s*$`),
	Config:      regexp.MustCompile(`^[\w\-.]+@[\w\-.]+#\s*$`),
}

var iosxrPrompts = PromptSet{
	Operational: regexp.MustCompile(`^RP/\d+/\w+/CPU\d+:[\w\-.]+#\s*$`),
	Config:      regexp.MustCompile(`^RP/\d+/\w+/CPU\d+:[\w\-.]+\(config[^)]*\)#\s*$`),
}
