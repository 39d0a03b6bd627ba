package preview

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// daemonStartDeadline bounds how long the parent waits for the child's
// handoff lines before giving up.
const daemonStartDeadline = 5 * time.Second

// SpawnDaemon re-executes the current binary with --daemon-child, waits for
// the child to report its listening URL and process id on stdout, relays
// both lines, and returns with the child still running detached. The child's
// stderr stays attached to the terminal so startup failures are visible.
func SpawnDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	cmd := exec.Command(exe, rewriteDaemonArgs(os.Args[1:])...)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("capture daemon output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn preview daemon: %w", err)
	}

	lines := make(chan string, 4)
	go scanDaemonOutput(stdout, lines)
	url, pid, err := awaitDaemonLines(lines, daemonStartDeadline)
	if url != "" {
		fmt.Println(url)
	}
	if pid != "" {
		fmt.Println(pid)
	}
	if err != nil {
		return err
	}
	_ = cmd.Process.Release()
	return nil
}

// rewriteDaemonArgs swaps --daemon for --daemon-child so the child serves
// directly instead of spawning yet another daemon.
func rewriteDaemonArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	replaced := false
	for _, arg := range args {
		if arg == "--daemon" {
			if !replaced {
				out = append(out, "--daemon-child")
				replaced = true
			}
			continue
		}
		out = append(out, arg)
	}
	if !replaced {
		out = append(out, "--daemon-child")
	}
	return out
}

// scanDaemonOutput forwards the sentinel-prefixed lines from the child's
// stdout and closes the channel when the stream ends.
func scanDaemonOutput(r io.Reader, lines chan<- string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "URL=") || strings.HasPrefix(line, "PID=") {
			select {
			case lines <- line:
			default:
			}
		}
	}
	close(lines)
}

// awaitDaemonLines collects the URL= and PID= lines, bounded by deadline.
// Whatever arrived is returned even on error so the caller can relay a
// partial handoff.
func awaitDaemonLines(lines <-chan string, deadline time.Duration) (url, pid string, err error) {
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	for url == "" || pid == "" {
		select {
		case line, ok := <-lines:
			if !ok {
				return url, pid, errors.New("preview daemon exited before reporting its URL")
			}
			if strings.HasPrefix(line, "URL=") {
				url = line
			} else {
				pid = line
			}
		case <-timer.C:
			return url, pid, fmt.Errorf("preview daemon did not report within %s", deadline)
		}
	}
	return url, pid, nil
}
