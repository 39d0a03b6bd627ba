package preview

import (
	"log/slog"
	"os/exec"
	"runtime"

	"git.home.luguber.info/inful/rendar/internal/logfields"
)

// OpenBrowser launches the platform opener for url. Failures are logged at
// debug and otherwise ignored; the server keeps running either way.
func OpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/C", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Debug("Browser open failed", logfields.URL(url), logfields.Error(err))
		return
	}
	go func() { _ = cmd.Wait() }()
}
