package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rendar/internal/config"
)

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("rendar"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	return cli, ctx, err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestGrammarBuildFlags(t *testing.T) {
	cli, ctx, err := parseCLI(t,
		"build", "-o", "site", "-i", "docs", "--template", "t.html",
		"--exclude", "drafts/**", "--exclude", "TODO.md", "--csv-max-rows", "0")
	require.NoError(t, err)
	require.Equal(t, "build", ctx.Command())
	require.Equal(t, "site", cli.Build.Out)
	require.Equal(t, "docs", cli.Build.Input)
	require.Equal(t, "t.html", cli.Build.Template)
	require.Equal(t, []string{"drafts/**", "TODO.md"}, cli.Build.Exclude)
	require.NotNil(t, cli.Build.CSVMaxRows)
	require.Zero(t, *cli.Build.CSVMaxRows)
}

func TestGrammarPreviewFlags(t *testing.T) {
	cli, ctx, err := parseCLI(t,
		"preview", "--start-on", "docs/guide.md", "--auto-exit", "60", "--port", "4000")
	require.NoError(t, err)
	require.Equal(t, "preview", ctx.Command())
	require.Equal(t, "docs/guide.md", cli.Preview.StartOn)
	require.NotNil(t, cli.Preview.AutoExit)
	require.Equal(t, 60, *cli.Preview.AutoExit)
	require.NotNil(t, cli.Preview.Port)
	require.Equal(t, 4000, *cli.Preview.Port)
	require.Nil(t, cli.Preview.CSVMaxRows)
}

func TestGrammarRejectsOpenConflict(t *testing.T) {
	_, _, err := parseCLI(t, "preview", "--open", "--no-open")
	require.Error(t, err)
}

func TestGrammarParsesHiddenDaemonChild(t *testing.T) {
	cli, _, err := parseCLI(t, "preview", "--daemon-child")
	require.NoError(t, err)
	require.True(t, cli.Preview.DaemonChild)
}

func TestResolveInputPrecedence(t *testing.T) {
	cfg := &config.Config{Input: "/cfg/docs"}

	got, err := resolveInput("/flag/docs", cfg)
	require.NoError(t, err)
	require.Equal(t, "/flag/docs", got)

	got, err = resolveInput("", cfg)
	require.NoError(t, err)
	require.Equal(t, "/cfg/docs", got)

	got, err = resolveInput("", &config.Config{})
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, cwd, got)
}

func TestResolveOutputDefaultsInsideInput(t *testing.T) {
	got, err := resolveOutput("", &config.Config{}, "/src/docs")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/src/docs", "site"), got)

	got, err = resolveOutput("", &config.Config{Output: "/cfg/out"}, "/src/docs")
	require.NoError(t, err)
	require.Equal(t, "/cfg/out", got)

	got, err = resolveOutput("/flag/out", &config.Config{Output: "/cfg/out"}, "/src/docs")
	require.NoError(t, err)
	require.Equal(t, "/flag/out", got)
}

func TestResolveExcludesFlagReplacesConfig(t *testing.T) {
	cfg := &config.Config{Exclude: []string{"from-config.md"}}

	excludes, err := resolveExcludes([]string{"from-flag.md"}, cfg)
	require.NoError(t, err)
	require.True(t, excludes.Match("from-flag.md"))
	require.False(t, excludes.Match("from-config.md"))

	excludes, err = resolveExcludes(nil, cfg)
	require.NoError(t, err)
	require.True(t, excludes.Match("from-config.md"))
}

func TestResolveCSVMaxRows(t *testing.T) {
	require.Zero(t, resolveCSVMaxRows(nil, &config.Config{}))

	configured := 250
	require.Equal(t, 250, resolveCSVMaxRows(nil, &config.Config{CSVMaxRows: &configured}))

	unlimited := 0
	require.Equal(t, -1, resolveCSVMaxRows(&unlimited, &config.Config{}))

	capped := 100
	require.Equal(t, 100, resolveCSVMaxRows(&capped, &config.Config{}))
}

func TestResolvePort(t *testing.T) {
	require.Equal(t, 4040, resolvePort(nil, &config.Config{Preview: config.PreviewConfig{Port: 4040}}))
	require.Zero(t, resolvePort(nil, &config.Config{}))

	flag := 5000
	require.Equal(t, 5000, resolvePort(&flag, &config.Config{Preview: config.PreviewConfig{Port: 4040}}))
}

func TestResolveOpen(t *testing.T) {
	cfg := &config.Config{Preview: config.PreviewConfig{Open: true}}

	require.False(t, resolveOpen(false, true, false, cfg))
	require.True(t, resolveOpen(true, false, false, &config.Config{}))
	require.True(t, resolveOpen(false, false, true, &config.Config{}))
	require.True(t, resolveOpen(false, false, false, cfg))
	require.False(t, resolveOpen(false, false, false, &config.Config{}))
}

func TestResolveIdleTimeout(t *testing.T) {
	cfg := &config.Config{Preview: config.PreviewConfig{IdleTimeoutSecs: 30}}

	require.Equal(t, 30*time.Second, resolveIdleTimeout(nil, cfg))
	require.Zero(t, resolveIdleTimeout(nil, &config.Config{}))

	sixty := 60
	require.Equal(t, time.Minute, resolveIdleTimeout(&sixty, cfg))

	zero := 0
	require.Zero(t, resolveIdleTimeout(&zero, cfg))
}

func TestBuildCmdRendersTree(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md":      "# Home\n\nSee [the guide](docs/guide.md).",
		"docs/guide.md": "# Guide",
	})
	out := filepath.Join(t.TempDir(), "site")

	cmd := &BuildCmd{Out: out, Input: in}
	require.NoError(t, cmd.Run(&Global{}, &CLI{}))

	require.FileExists(t, filepath.Join(out, "index.html"))
	require.FileExists(t, filepath.Join(out, "docs", "guide.html"))
}

func TestBuildCmdReadsConfigDefaults(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md":    "# Home",
		"drafts/x.md": "# Draft",
		"rendar.toml": "output = \"dist\"\nexclude = [\"drafts/**\"]\n",
	})

	cmd := &BuildCmd{Input: in}
	require.NoError(t, cmd.Run(&Global{}, &CLI{}))

	require.FileExists(t, filepath.Join(in, "dist", "index.html"))
	require.NoFileExists(t, filepath.Join(in, "dist", "drafts", "x.html"))
}

func TestCheckCmdFailsOnBrokenLink(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{"index.md": "# Home\n\n[gone](missing.md)"})

	err := (&CheckCmd{Input: in}).Run(&Global{}, &CLI{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "check found")
}

func TestCheckCmdPassesOnCleanTree(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md":      "# Home\n\n[guide](docs/guide.md)",
		"docs/guide.md": "# Guide",
	})

	require.NoError(t, (&CheckCmd{Input: in}).Run(&Global{}, &CLI{}))
}

func TestPreviewCmdRejectsDaemonConflict(t *testing.T) {
	err := (&PreviewCmd{Daemon: true, DaemonChild: true}).Run(&Global{}, &CLI{})
	require.Error(t, err)
	require.Equal(t, "Cannot use --daemon and --daemon-child together", err.Error())
}
