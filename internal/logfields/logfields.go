package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyMode       = "mode"
	KeyPath       = "path"
	KeySource     = "source"
	KeyOutput     = "output"
	KeyPages      = "pages"
	KeyAssets     = "assets"
	KeyWarnings   = "warnings"
	KeyVersion    = "version"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Assets(n int) slog.Attr          { return slog.Int(KeyAssets, n) }
func Warnings(n int) slog.Attr        { return slog.Int(KeyWarnings, n) }
func Version(v uint64) slog.Attr      { return slog.Uint64(KeyVersion, v) }
func Port(p int) slog.Attr            { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
