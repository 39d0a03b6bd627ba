// Package build orchestrates one full tree conversion: walk the source,
// mirror directories, copy assets, render markup and CSV pages through the
// engine, navigation and template, and apply the README/index duplication
// rule. Check mode runs the same traversal without writing.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/rendar/internal/csvpreview"
	"git.home.luguber.info/inful/rendar/internal/diag"
	"git.home.luguber.info/inful/rendar/internal/gitmeta"
	"git.home.luguber.info/inful/rendar/internal/links"
	"git.home.luguber.info/inful/rendar/internal/logfields"
	"git.home.luguber.info/inful/rendar/internal/markdown"
	"git.home.luguber.info/inful/rendar/internal/metrics"
	"git.home.luguber.info/inful/rendar/internal/nav"
	"git.home.luguber.info/inful/rendar/internal/site"
	"git.home.luguber.info/inful/rendar/internal/template"
)

// DefaultCSVMaxRows caps CSV preview tables unless configured otherwise.
const DefaultCSVMaxRows = 1000

// Builder holds the fixed inputs of a build pass. Zero values get defaults:
// nil Template means the built-in one, nil Metrics means no recording.
type Builder struct {
	Input        string // absolute source root
	Output       string // absolute output directory
	Template     *template.Template
	TemplatePath string // for diagnostics, "" when built-in
	Excludes     *site.Excludes
	CSVMaxRows   int
	Repo         *gitmeta.RepoInfo // optional, enables edit links
	Metrics      metrics.Recorder
}

// Result summarizes one finished pass.
type Result struct {
	BuildID     string
	Pages       int // HTML documents written (rendered, in check mode)
	Assets      int // files copied byte-for-byte
	Issues      []diag.Issue
	Fingerprint string // digest of the source tree that produced this output
	Duration    time.Duration
	Map         *site.SiteMap
}

// Warnings returns the advisory issue count, the check-mode exit signal.
func (r *Result) Warnings() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == diag.SeverityWarning {
			count++
		}
	}
	return count
}

// Build converts the source tree into the output directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	return b.run(ctx, false)
}

// Check runs the build traversal without writing, collecting link warnings.
func (b *Builder) Check(ctx context.Context) (*Result, error) {
	return b.run(ctx, true)
}

func (b *Builder) run(ctx context.Context, dryRun bool) (*Result, error) {
	started := time.Now()
	rec := b.recorder()

	if !dryRun {
		if err := os.MkdirAll(b.Output, 0o755); err != nil {
			rec.IncBuildOutcome(metrics.OutcomeFailed)
			return nil, fmt.Errorf("create output directory %s: %w", b.Output, err)
		}
	}

	cfg := site.WalkConfig{Root: b.Input, Output: b.Output, Excludes: b.Excludes}

	scanStart := time.Now()
	m, err := site.BuildSiteMap(cfg)
	if err != nil {
		rec.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	rec.ObserveStageDuration("scan", time.Since(scanStart))

	p := &pass{
		b:        b,
		dryRun:   dryRun,
		m:        m,
		engine:   markdown.NewEngine(),
		resolver: &links.Resolver{Root: b.Input, IndexDirs: m.IndexDirs},
		nav:      &nav.Builder{Map: m, EditURL: b.editURLFunc()},
		tpl:      b.template(),
		prints:   map[string]string{},
	}

	for _, placeholder := range p.tpl.MissingPlaceholders() {
		p.collector.Add(diag.TemplateMissingPlaceholder(placeholder, b.TemplatePath))
	}

	renderStart := time.Now()
	err = site.WalkTree(cfg, func(rel, abs string, d os.DirEntry) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		switch {
		case d.IsDir():
			return p.dir(rel)
		case site.IsContentFile(rel):
			return p.page(rel, abs)
		case site.IsCSVFile(rel):
			return p.csv(rel, abs)
		default:
			return p.asset(rel, abs)
		}
	})
	if err != nil {
		rec.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	rec.ObserveStageDuration("render", time.Since(renderStart))

	res := &Result{
		BuildID:     uuid.NewString(),
		Pages:       p.pages,
		Assets:      p.assets,
		Issues:      p.collector.Issues(),
		Fingerprint: treeFingerprint(p.prints),
		Duration:    time.Since(started),
		Map:         m,
	}

	for _, issue := range res.Issues {
		slog.Warn(issue.Message)
	}

	rec.ObserveBuildDuration(res.Duration)
	rec.AddPagesRendered(res.Pages)
	rec.AddIssues(len(res.Issues))
	outcome := metrics.OutcomeSuccess
	if res.Warnings() > 0 {
		outcome = metrics.OutcomeWarning
	}
	rec.IncBuildOutcome(outcome)

	msg := "Site build complete"
	if dryRun {
		msg = "Check complete"
	}
	slog.Info(msg,
		logfields.BuildID(res.BuildID),
		logfields.Pages(res.Pages),
		logfields.Assets(res.Assets),
		logfields.Warnings(res.Warnings()),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))

	return res, nil
}

func (b *Builder) recorder() metrics.Recorder {
	if b.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return b.Metrics
}

func (b *Builder) template() *template.Template {
	if b.Template == nil {
		return template.BuiltIn()
	}
	return b.Template
}

// csvMaxRows maps the configured cap onto what csvpreview.Render expects:
// zero keeps the default, negative lifts the cap entirely.
func (b *Builder) csvMaxRows() int {
	if b.CSVMaxRows == 0 {
		return DefaultCSVMaxRows
	}
	if b.CSVMaxRows < 0 {
		return 0
	}
	return b.CSVMaxRows
}

// editURLFunc maps pages to forge edit addresses when repository metadata is
// available and the input root sits inside the worktree.
func (b *Builder) editURLFunc() func(*site.PageEntry) string {
	if b.Repo == nil || b.Repo.WebBase == "" {
		return nil
	}
	rel, err := filepath.Rel(b.Repo.Root, b.Input)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return nil
	}
	return func(entry *site.PageEntry) string {
		return b.Repo.EditURL(path.Join(rel, entry.SourcePath))
	}
}
