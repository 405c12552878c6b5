// Package logging builds per-module zap loggers from a single filter
// string like "info,bundle=debug,portal=trace".
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits one step below zap's Debug, for the fallback recorder's
// full-body logging of unmatched requests.
const TraceLevel = zapcore.DebugLevel - 1

// Loggers hands out a *zap.Logger per module, each filtered to its own
// configured level while sharing one underlying core.
type Loggers struct {
	base         *zap.Logger
	defaultLevel zapcore.Level
	levels       map[string]zapcore.Level
}

func New(filter string) (*Loggers, error) {
	def, levels, err := parseFilter(filter)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(TraceLevel)
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &Loggers{base: base, defaultLevel: def, levels: levels}, nil
}

// For returns a logger named after module, filtered to its configured
// level (or the filter's default level if the module isn't listed).
func (l *Loggers) For(module string) *zap.Logger {
	level := l.defaultLevel
	if v, ok := l.levels[module]; ok {
		level = v
	}
	return l.base.Named(module).WithOptions(zap.IncreaseLevel(level))
}

func (l *Loggers) Sync() error { return l.base.Sync() }

func parseFilter(filter string) (zapcore.Level, map[string]zapcore.Level, error) {
	def := zapcore.InfoLevel
	levels := map[string]zapcore.Level{}

	for _, part := range strings.Split(filter, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 {
			lvl, err := parseLevel(kv[1])
			if err != nil {
				return 0, nil, err
			}
			levels[kv[0]] = lvl
			continue
		}
		lvl, err := parseLevel(part)
		if err != nil {
			return 0, nil, err
		}
		def = lvl
	}
	return def, levels, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	if strings.EqualFold(s, "trace") {
		return TraceLevel, nil
	}
	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(strings.ToLower(s)))
	return lvl, err
}
