package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the CLI configuration, merged from defaults, an optional
// shaderconv.yaml, SHADERCONV_* environment variables, and flags, in
// that order.
type Config struct {
	Strict      bool   `koanf:"strict"`
	GLSLVersion int    `koanf:"glsl-version"`
	ShaderModel string `koanf:"shader-model"`
	Jobs        int    `koanf:"jobs"`
	NoColor     bool   `koanf:"no-color"`
}

const envPrefix = "SHADERCONV_"

// defaultConfigFile is looked up in the working directory when no
// --config flag is given.
const defaultConfigFile = "shaderconv.yaml"

// loadConfig merges the configuration sources. Flags win over
// environment, environment over file, file over defaults.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"strict":       false,
		"glsl-version": 330,
		"shader-model": "5.0",
		"jobs":         4,
		"no-color":     false,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("defaults: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", "-")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
