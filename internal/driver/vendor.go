package driver

import (
	"strconv"
	"strings"
)

// vendorSpec is the small capability record of vendor hooks design note (a)
// in spec.md §9 recommends in place of inheritance: one value per device
// kind, held by the base driver, with no vendor-specific branching anywhere
// else in the state machine.
type vendorSpec struct {
	info DeviceInfo

	initCommands     []string
	enterConfigCmds  []string
	commitCmds       []string
	abortCmds        []string
	rollbackNCmds    func(n int) []string

	prompts PromptSet

	// commitFailed reports whether buf (the COMMITTING-state input buffer)
	// matches this vendor's commit-failure predicate. Case-insensitive
	// substring match per spec.md §4.5.
	commitFailed func(buf string) bool
}

func junosSpec() vendorSpec {
	return vendorSpec{
		info: DeviceInfo{DeviceKind: KindJunos, Vendor: "Juniper", OS: "JUNOS"},
		initCommands: []string{
			"set cli screen-length 0",
			"set cli screen-width 0",
			"set cli complete-on-space off",
			"set cli idle-timeout 0",
		},
		enterConfigCmds: []string{"configure"},
		commitCmds:      []string{"commit", "exit"},
		abortCmds:       []string{"rollback", "exit"},
		rollbackNCmds: func(n int) []string {
			return []string{"configure", rollbackCommand(n), "commit", "exit"}
		},
		prompts: junosPrompts,
		commitFailed: substringPredicate("error:", "failed", "commit failed"),
	}
}

func iosxrSpec() vendorSpec {
	return vendorSpec{
		info: DeviceInfo{DeviceKind: KindIOSXR, Vendor: "Cisco", OS: "IOS XR"},
		initCommands: []string{
			"terminal length 0",
			"terminal width 0",
			"terminal exec prompt no-timestamp",
			"terminal monitor disable",
		},
		enterConfigCmds: []string{"configure terminal"},
		commitCmds:      []string{"commit", "end"},
		abortCmds:       []string{"abort", "end"},
		rollbackNCmds: func(n int) []string {
			return []string{rollbackLastNCommand(n)}
		},
		prompts: iosxrPrompts,
		commitFailed: substringPredicate("% error", "failed", "commit failed", "% invalid"),
	}
}

func specFor(kind Kind) vendorSpec {
	switch kind {
	case KindIOSXR:
		return iosxrSpec()
	default:
		return junosSpec()
	}
}

func substringPredicate(needles ...string) func(string) bool {
	return func(buf string) bool {
		lower := strings.ToLower(buf)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
		return false
	}
}

func rollbackCommand(n int) string {
	return "rollback " + strconv.Itoa(n)
}

func rollbackLastNCommand(n int) string {
	return "rollback configuration last " + strconv.Itoa(n)
}
