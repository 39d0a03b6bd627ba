package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rendar/internal/gitmeta"
	"git.home.luguber.info/inful/rendar/internal/site"
	"git.home.luguber.info/inful/rendar/internal/template"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func readOut(t *testing.T, out, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuildWritesTree(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md":          "# Home\n\nSee [setup](docs/setup.md).\n",
		"docs/index.md":     "# Documentation\n",
		"docs/setup.md":     "# Setup\n\n![logo](img/logo.png)\n",
		"docs/img/logo.png": "not really a png",
		"notes/README.md":   "# Notes\n",
		"data/stats.csv":    "name,count\nalpha,1\nbeta,2\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(in, "archive"), 0o755))

	b := &Builder{Input: in, Output: out}
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	home := readOut(t, out, "index.html")
	assert.Contains(t, home, "<!doctype html>")
	assert.Contains(t, home, `<h1 id="home">Home</h1>`)
	assert.Contains(t, home, `href="docs/setup.html"`)

	setup := readOut(t, out, "docs/setup.html")
	assert.Contains(t, setup, `src="img/logo.png"`, "image destinations stay put")
	assert.Contains(t, setup, `>Documentation</a>`, "breadcrumb links the landing ancestor")

	assert.Equal(t, "not really a png", readOut(t, out, "docs/img/logo.png"))

	// README with no index sibling lands under both names, identically.
	readme := readOut(t, out, "notes/README.html")
	assert.Equal(t, readme, readOut(t, out, "notes/index.html"))

	csvPage := readOut(t, out, "data/stats.csv.html")
	assert.Contains(t, csvPage, `<table class="csv-table">`)
	assert.Contains(t, csvPage, "<td>alpha</td>")
	assert.Equal(t, "name,count\nalpha,1\nbeta,2\n", readOut(t, out, "data/stats.csv"))

	// Empty directories are mirrored.
	info, err := os.Stat(filepath.Join(out, "archive"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, 6, res.Pages)
	assert.Equal(t, 2, res.Assets)
	assert.Empty(t, res.Issues)
	assert.NotEmpty(t, res.Fingerprint)
	assert.NotEmpty(t, res.BuildID)
}

func TestBuildReadmeShadowedByIndex(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"docs/index.md":  "# Indexed\n",
		"docs/README.md": "# Readme Title\n",
	})

	b := &Builder{Input: in, Output: out}
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	index := readOut(t, out, "docs/index.html")
	assert.Contains(t, index, "Indexed")
	assert.Contains(t, readOut(t, out, "docs/README.html"), "Readme Title")
	// The README body is not duplicated over the index; the nav may still
	// link it by title.
	assert.NotContains(t, index, `id="readme-title"`)
}

func TestBuildCollectsLinkWarnings(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md": "# Home\n\n[gone](missing.md)\n",
	})

	b := &Builder{Input: in, Output: out}
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, res.Warnings())
	assert.Equal(t, "Missing link target: missing.md referenced from index.md", res.Issues[0].Message)
	// The rewrite still happens; broken links are advisory.
	assert.Contains(t, readOut(t, out, "index.html"), `href="missing.html"`)
}

func TestCheckWritesNothing(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "site")
	writeTree(t, in, map[string]string{
		"index.md":  "# Home\n\n[gone](missing.md)\n",
		"extra.csv": "a,b\n1,2\n",
	})

	b := &Builder{Input: in, Output: out}
	res, err := b.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Warnings())
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildFingerprintTracksContent(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md":  "# Home\n",
		"style.png": "bytes",
	})

	b := &Builder{Input: in, Output: t.TempDir()}
	first, err := b.Build(context.Background())
	require.NoError(t, err)

	again, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, again.Fingerprint)

	writeTree(t, in, map[string]string{"index.md": "# Home changed\n"})
	changed, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, changed.Fingerprint)
}

func TestBuildSlidesPage(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"deck.md": "---\nmode: slides\n---\n# One\n\n# Two\n",
	})

	b := &Builder{Input: in, Output: out}
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	deck := readOut(t, out, "deck.html")
	assert.Contains(t, deck, `class="slides-root"`)
	assert.Contains(t, deck, `data-slide-count="2"`)
	assert.Contains(t, deck, "__rendarSlides")
}

func TestBuildEditLinks(t *testing.T) {
	repoRoot := t.TempDir()
	in := filepath.Join(repoRoot, "docs")
	writeTree(t, repoRoot, map[string]string{
		"docs/guide.md": "# Guide\n",
	})

	b := &Builder{
		Input:  in,
		Output: t.TempDir(),
		Repo: &gitmeta.RepoInfo{
			Root:     repoRoot,
			WebBase:  "https://github.com",
			FullName: "acme/site",
			Branch:   "main",
			Forge:    gitmeta.ForgeGitHub,
		},
	}
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	page := readOut(t, b.Output, "guide.html")
	assert.Contains(t, page, `href="https://github.com/acme/site/edit/main/docs/guide.md"`)
}

func TestBuildCustomTemplateWarnsOnMissingPlaceholder(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{"index.md": "# Home\n"})

	tplPath := filepath.Join(t.TempDir(), "custom.html")
	require.NoError(t, os.WriteFile(tplPath, []byte("<html><body>{{content}}</body></html>"), 0o644))
	tpl, err := template.FromPath(tplPath)
	require.NoError(t, err)

	b := &Builder{Input: in, Output: t.TempDir(), Template: tpl, TemplatePath: tplPath}
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, res.Warnings())
	assert.Contains(t, res.Issues[0].Message, "{{title}}")
	assert.Contains(t, readOut(t, b.Output, "index.html"), "<h1")
}

func TestBuildHonorsExcludes(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"index.md":        "# Home\n",
		"drafts/wip.md":   "# WIP\n",
		"drafts/note.txt": "scratch",
	})

	ex, err := site.CompileExcludes([]string{"drafts/**", "drafts"})
	require.NoError(t, err)

	b := &Builder{Input: in, Output: out, Excludes: ex}
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Pages)
	_, statErr := os.Stat(filepath.Join(out, "drafts"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildOutputInsideInput(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{"index.md": "# Home\n"})
	out := filepath.Join(in, "_site")

	b := &Builder{Input: in, Output: out}
	_, err := b.Build(context.Background())
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.NoError(t, err)

	// The output tree never becomes input.
	_, statErr := os.Stat(filepath.Join(out, "_site"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildCanceledContext(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{"index.md": "# Home\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &Builder{Input: in, Output: t.TempDir()}
	_, err := b.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
