package socketio

import (
	"os"
	"strings"

	"github.com/edumarques81/superplayer/internal/version"
)

// SystemInfo describes the host the player runs on.
type SystemInfo struct {
	Host      string `json:"host"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime,omitempty"`
	Engine    string `json:"engine"`
	Hardware  string `json:"hardware,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// GetSystemInfo returns host and build information.
func GetSystemInfo(engine, sessionID string) SystemInfo {
	info := version.GetInfo()
	sys := SystemInfo{
		Name:      info.Name,
		Version:   info.Version,
		BuildTime: info.BuildTime,
		Engine:    engine,
		SessionID: sessionID,
	}

	if hostname, err := os.Hostname(); err == nil {
		sys.Host = hostname
	}

	// Raspberry Pi kernels expose the board under "Model".
	if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "Model") {
				if _, model, ok := strings.Cut(line, ":"); ok {
					sys.Hardware = strings.TrimSpace(model)
					break
				}
			}
		}
	}

	return sys
}
