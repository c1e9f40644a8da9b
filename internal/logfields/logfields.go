package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyModuleKey  = "module_key"
	KeyActionType = "action_type"
	KeyActionID   = "action_id"
	KeyBuiltin    = "builtin"
	KeyModules    = "modules"
	KeyRebuilds   = "rebuilds"
	KeyOperation  = "operation_id"
	KeySupNumber  = "sup_number"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ModuleKey(k string) slog.Attr   { return slog.String(KeyModuleKey, k) }
func ActionType(t string) slog.Attr  { return slog.String(KeyActionType, t) }
func ActionID(id string) slog.Attr   { return slog.String(KeyActionID, id) }
func Builtin(b bool) slog.Attr       { return slog.Bool(KeyBuiltin, b) }
func Modules(n int) slog.Attr        { return slog.Int(KeyModules, n) }
func Rebuilds(n uint64) slog.Attr    { return slog.Uint64(KeyRebuilds, n) }
func OperationID(id int64) slog.Attr { return slog.Int64(KeyOperation, id) }
func SupNumber(n string) slog.Attr   { return slog.String(KeySupNumber, n) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
