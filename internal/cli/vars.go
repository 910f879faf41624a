package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/xsh/pkg/engine"
)

// LoadVarsFile reads a variable file into a scope. The format follows the
// extension: .yaml/.yml, .toml, or .json.
func LoadVarsFile(path string) (engine.Scope, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vars file: %w", err)
	}
	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		raw = k.Raw()
	case ".toml":
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported vars file extension: %s", path)
	}

	sc := engine.Scope{}
	for k, v := range raw {
		sc[k] = normalizeVar(v)
	}
	return sc, nil
}

// ParseVarFlags converts repeated --var k=v flags into a scope. Values are
// kept as strings; expressions can convert them.
func ParseVarFlags(pairs []string) (engine.Scope, error) {
	sc := engine.Scope{}
	for _, pair := range pairs {
		k, v, found := strings.Cut(pair, "=")
		if !found || k == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", pair)
		}
		sc[k] = v
	}
	return sc, nil
}

// normalizeVar converts decoded numbers and nested containers into the
// engine's value domain.
func normalizeVar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalizeVar(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = normalizeVar(el)
		}
		return out
	default:
		return v
	}
}
