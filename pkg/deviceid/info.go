package deviceid

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"

	"shareadmin/pkg/protocol"
)

// Info returns best-effort metadata about the installation host. It is
// attached to login requests so the server can label session descriptors.
func Info() protocol.DeviceInfo {
	info := protocol.DeviceInfo{OS: runtime.GOOS}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}
	if hi, err := host.Info(); err == nil {
		if hi.Platform != "" {
			info.Platform = hi.Platform
		}
		if hi.OS != "" {
			info.OS = hi.OS
		}
	}
	return info
}
