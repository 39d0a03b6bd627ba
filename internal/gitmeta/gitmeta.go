// Package gitmeta discovers the repository hosting the site source so pages
// can carry "edit this page" links back to the forge's web UI.
package gitmeta

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Forge identifies the web UI flavor an edit URL targets.
type Forge string

const (
	ForgeGitHub  Forge = "github"
	ForgeGitLab  Forge = "gitlab"
	ForgeForgejo Forge = "forgejo"
)

// RepoInfo describes the repository containing the site source. WebBase and
// FullName are empty when the origin remote has no web address (e.g. a local
// path), in which case EditURL returns "".
type RepoInfo struct {
	Root     string // absolute worktree root
	WebBase  string // e.g. "https://github.com"
	FullName string // e.g. "org/repo"
	Branch   string
	Forge    Forge
}

// Discover opens the repository containing dir, walking up to find .git, and
// reads the origin remote and checked-out branch.
func Discover(dir string) (*RepoInfo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolve worktree: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil, fmt.Errorf("resolve origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("origin remote has no URL")
	}

	info := &RepoInfo{
		Root:   wt.Filesystem.Root(),
		Branch: "main",
	}
	if head, headErr := repo.Head(); headErr == nil && head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	if webBase, fullName, ok := ParseRemoteURL(urls[0]); ok {
		info.WebBase = webBase
		info.FullName = fullName
		info.Forge = DetectForge(webBase)
	}
	return info, nil
}

// EditURL returns the web UI edit address for a file, given its path relative
// to the repository root using forward slashes.
func (r *RepoInfo) EditURL(filePath string) string {
	if r == nil || r.WebBase == "" || r.FullName == "" || r.Branch == "" || filePath == "" {
		return ""
	}
	base := strings.TrimSuffix(r.WebBase, "/")
	switch r.Forge {
	case ForgeGitHub:
		return fmt.Sprintf("%s/%s/edit/%s/%s", base, r.FullName, r.Branch, filePath)
	case ForgeGitLab:
		return fmt.Sprintf("%s/%s/-/edit/%s/%s", base, r.FullName, r.Branch, filePath)
	case ForgeForgejo:
		return fmt.Sprintf("%s/%s/_edit/%s/%s", base, r.FullName, r.Branch, filePath)
	}
	return ""
}

// ParseRemoteURL turns a git remote URL into a web base and "org/repo" name.
// Handles https://, ssh://, git:// and scp-like git@host:path forms. ok is
// false for remotes without a usable host, such as local paths.
func ParseRemoteURL(remote string) (webBase, fullName string, ok bool) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", "", false
	}

	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil || u.Host == "" {
			return "", "", false
		}
		host := u.Host
		scheme := "https"
		switch u.Scheme {
		case "http", "https":
			scheme = u.Scheme
		default:
			// ssh ports have no meaning on the web side
			host = u.Hostname()
		}
		name := trimRepoPath(u.Path)
		if name == "" {
			return "", "", false
		}
		return scheme + "://" + host, name, true
	}

	// scp-like: git@host:org/repo.git
	at := strings.Index(remote, "@")
	colon := strings.Index(remote, ":")
	if at < 0 || colon < at {
		return "", "", false
	}
	host := remote[at+1 : colon]
	name := trimRepoPath(remote[colon+1:])
	if host == "" || name == "" {
		return "", "", false
	}
	return "https://" + host, name, true
}

// DetectForge guesses the forge flavor from the web base host. Anything that
// is not github.com or a gitlab host is treated as Forgejo, the self-hosted
// default around here.
func DetectForge(webBase string) Forge {
	host := webBase
	if u, err := url.Parse(webBase); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	host = strings.ToLower(host)
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return ForgeGitHub
	case strings.Contains(host, "gitlab"):
		return ForgeGitLab
	}
	return ForgeForgejo
}

func trimRepoPath(p string) string {
	p = strings.Trim(p, "/")
	return strings.TrimSuffix(p, ".git")
}
