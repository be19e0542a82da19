// Package config loads .constrain.toml, the CLI's persistent defaults,
// grounded on the teacher's cmd/sift/main.go inline config-reading pattern
// (a bare struct decoded with pelletier/go-toml/v2, each field overriding a
// package-level default only when present).
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/screenager/constrain/schema"
)

// Config mirrors the CLI's persistent flags (spec §6's model-contract
// parameters plus the demo host's ONNX settings), so a project can commit a
// .constrain.toml instead of repeating flags on every invocation.
type Config struct {
	ModelDir          string `toml:"model-dir"`
	OrtLib            string `toml:"ort-lib"`
	Threads           int    `toml:"threads"`
	Backend           string `toml:"backend"`
	EOSToken          string `toml:"eos-token"`
	MaxRollback       int    `toml:"max-rollback"`
	WhitespacePattern string `toml:"whitespace-pattern"`
	MaxRecursionDepth int    `toml:"max-recursion-depth"`
}

// Default returns the built-in defaults applied before any .constrain.toml
// or flag override.
func Default() Config {
	defaults := schema.DefaultOptions()
	return Config{
		ModelDir:          "./models",
		OrtLib:            "./lib/onnxruntime.so",
		Threads:           0,
		Backend:           "slice",
		EOSToken:          "</s>",
		MaxRollback:       32,
		WhitespacePattern: defaults.WhitespacePattern,
		MaxRecursionDepth: defaults.MaxRecursionDepth,
	}
}

// SchemaOptions renders c's schema-compiler fields as a schema.Options.
func (c Config) SchemaOptions() schema.Options {
	return schema.Options{
		WhitespacePattern: c.WhitespacePattern,
		MaxRecursionDepth: c.MaxRecursionDepth,
		MaxPropertyDepth:  schema.DefaultOptions().MaxPropertyDepth,
	}
}

// Load reads path and merges any present fields over base. A missing file
// is not an error — it just means "use base unchanged", the same
// best-effort posture as the teacher's inline `os.ReadFile(".sift.toml")`.
func Load(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, err
	}
	var overlay Config
	if err := toml.Unmarshal(b, &overlay); err != nil {
		return base, err
	}
	merged := base
	if overlay.ModelDir != "" {
		merged.ModelDir = overlay.ModelDir
	}
	if overlay.OrtLib != "" {
		merged.OrtLib = overlay.OrtLib
	}
	if overlay.Threads > 0 {
		merged.Threads = overlay.Threads
	}
	if overlay.Backend != "" {
		merged.Backend = overlay.Backend
	}
	if overlay.EOSToken != "" {
		merged.EOSToken = overlay.EOSToken
	}
	if overlay.MaxRollback > 0 {
		merged.MaxRollback = overlay.MaxRollback
	}
	if overlay.WhitespacePattern != "" {
		merged.WhitespacePattern = overlay.WhitespacePattern
	}
	if overlay.MaxRecursionDepth > 0 {
		merged.MaxRecursionDepth = overlay.MaxRecursionDepth
	}
	return merged, nil
}
