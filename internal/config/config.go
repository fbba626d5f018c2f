// Package config loads generator settings. Defaults and constraints live in
// an embedded CUE schema; an optional crudgen.cue file is unified with it
// and CRUDGEN_* environment variables override the result.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/ilyakaznacheev/cleanenv"
)

//go:embed config.cue
var schemaSource []byte

// FileName is the config file looked up next to the schema when no path is
// given.
const FileName = "crudgen.cue"

// Project holds the toolchain settings of one generated project.
type Project struct {
	Create          []string   `json:"create"`
	Dependencies    []string   `json:"dependencies"`
	DevDependencies []string   `json:"devDependencies"`
	PostInstall     [][]string `json:"postInstall"`
	Format          []string   `json:"format"`
}

// Log configures diagnostics.
type Log struct {
	Level       string `json:"level" env:"CRUDGEN_LOG_LEVEL"`
	Development bool   `json:"development" env:"CRUDGEN_LOG_DEVELOPMENT"`
}

// Server configures the preview server.
type Server struct {
	Addr string `json:"addr" env:"CRUDGEN_ADDR"`
}

// Config is the decoded #Config.
type Config struct {
	Out            string `json:"out" env:"CRUDGEN_OUT"`
	BackendDir     string `json:"backendDir" env:"CRUDGEN_BACKEND_DIR"`
	FrontendDir    string `json:"frontendDir" env:"CRUDGEN_FRONTEND_DIR"`
	SharedDir      string `json:"sharedDir" env:"CRUDGEN_SHARED_DIR"`
	PackageManager string `json:"packageManager" env:"CRUDGEN_PACKAGE_MANAGER"`
	SkipInstall    bool   `json:"skipInstall" env:"CRUDGEN_SKIP_INSTALL"`
	SkipFormat     bool   `json:"skipFormat" env:"CRUDGEN_SKIP_FORMAT"`
	Manifest       string `json:"manifest" env:"CRUDGEN_MANIFEST"`

	Backend  Project `json:"backend"`
	Frontend Project `json:"frontend"`

	// Labels overrides form labels by entity name, then field name.
	Labels map[string]map[string]string `json:"labels"`

	Log    Log    `json:"log"`
	Server Server `json:"server"`
}

// Load unifies the file at path (skipped when path is empty) with the
// embedded schema, decodes it and applies environment overrides.
func Load(path string) (*Config, error) {
	var src []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		src = b
	}
	cfg, err := decode(path, src)
	if err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the path of a crudgen.cue beside schemaPath, or "".
func Discover(schemaPath string) string {
	p := filepath.Join(filepath.Dir(schemaPath), FileName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func decode(name string, src []byte) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("config.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("building config schema: %w", schema.Err())
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))
	if src != nil {
		user := ctx.CompileBytes(src, cue.Filename(name))
		if user.Err() != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, user.Err())
		}
		v = v.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", name, err)
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// check re-applies the constraints environment overrides can break.
func (c *Config) check() error {
	switch c.PackageManager {
	case "npm", "pnpm", "yarn", "bun":
	default:
		return fmt.Errorf("unsupported package manager %q", c.PackageManager)
	}
	if c.BackendDir == "" || c.FrontendDir == "" || c.SharedDir == "" {
		return fmt.Errorf("output directory names must not be empty")
	}
	return nil
}

// BackendRoot returns the backend project directory.
func (c *Config) BackendRoot() string { return filepath.Join(c.Out, c.BackendDir) }

// FrontendRoot returns the frontend project directory.
func (c *Config) FrontendRoot() string { return filepath.Join(c.Out, c.FrontendDir) }

// SharedRoot returns the shared contract directory.
func (c *Config) SharedRoot() string { return filepath.Join(c.Out, c.SharedDir) }

// ManifestPath returns the manifest database path, resolved against Out
// when relative.
func (c *Config) ManifestPath() string {
	if filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}
	return filepath.Join(c.Out, c.Manifest)
}
