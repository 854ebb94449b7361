package activity

import (
	"fmt"
	"os"
	"path/filepath"
)

func DefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return filepath.Join(runtimeDir, "iterm-relay", "activity.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("iterm-relay-%d", os.Getuid()), "activity.sock")
}
