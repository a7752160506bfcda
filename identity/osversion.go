package identity

import (
	"bytes"
	"os"
	"strings"
)

// hostOSVersion probes the real OS version string. Best effort: an
// unreadable source yields "unknown" rather than an error, because identity
// capture must never fail at process start.
func hostOSVersion() string {
	if data, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		return strings.TrimSpace(string(data))
	}
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		for _, line := range bytes.Split(data, []byte("\n")) {
			if v, ok := bytes.CutPrefix(line, []byte("VERSION_ID=")); ok {
				return strings.Trim(string(v), `"`)
			}
		}
	}
	return "unknown"
}
