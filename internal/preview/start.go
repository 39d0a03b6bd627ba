package preview

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/rendar/internal/site"
)

// landingCandidates is the probe order when a directory is named as the
// start page. First hit wins.
var landingCandidates = []string{"index.md", "index.markdown", "README.md", "README.markdown"}

// StartPaths is the resolved pair a preview session starts from.
type StartPaths struct {
	InputRoot string
	StartPage string // "" when no start page was requested
}

// ResolveStartPaths turns the optional --input and --start-on values into an
// input root and start page. Without an explicit input the root is the
// working directory, unless the start page lies outside it, in which case
// the root is discovered by walking up from the start page. A start page
// outside the final root is an error.
func ResolveStartPaths(cwd, inputOverride, startOn string) (StartPaths, error) {
	var startPage string
	if startOn != "" {
		resolved, err := resolveStartPage(absFrom(cwd, startOn))
		if err != nil {
			return StartPaths{}, err
		}
		startPage = resolved
	}

	var inputRoot string
	switch {
	case inputOverride != "":
		inputRoot = absFrom(cwd, inputOverride)
	case startPage != "":
		if site.IsInside(startPage, cwd) {
			inputRoot = cwd
		} else {
			inputRoot = discoverRootForStart(startPage)
		}
	default:
		inputRoot = cwd
	}

	if startPage != "" && !site.IsInside(startPage, inputRoot) {
		return StartPaths{}, fmt.Errorf("Start page %s is not under input root %s", startPage, inputRoot)
	}
	return StartPaths{InputRoot: inputRoot, StartPage: startPage}, nil
}

// resolveStartPage validates a --start-on value: directories resolve to
// their landing page, files must exist and be renderable.
func resolveStartPage(startOn string) (string, error) {
	st, err := os.Stat(startOn)
	if err != nil {
		return "", fmt.Errorf("Start page %s does not exist", startOn)
	}
	if st.IsDir() {
		landing := findLandingPage(startOn)
		if landing == "" {
			return "", fmt.Errorf("No index.md or README.md found in directory %s", startOn)
		}
		return landing, nil
	}
	if !site.IsContentFile(startOn) && !site.IsCSVFile(startOn) {
		return "", fmt.Errorf("Start page %s is not a Markdown or CSV file", startOn)
	}
	return startOn, nil
}

func findLandingPage(dir string) string {
	for _, name := range landingCandidates {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// discoverRootForStart walks up from the start page and returns the highest
// ancestor of an unbroken run of landing-page directories. Directories
// below the first landing page are tolerated; the first gap above one ends
// the climb.
func discoverRootForStart(startPage string) string {
	current := filepath.Dir(startPage)
	found := false
	last := ""
	for {
		if findLandingPage(current) != "" {
			found = true
			last = current
		} else if found {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	if last == "" {
		return filepath.Dir(startPage)
	}
	return last
}

func absFrom(cwd, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}
