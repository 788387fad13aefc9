package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is the config file looked up in the working directory.
	DefaultFile = "buildstamp.yaml"

	// DefaultWebRepo is the companion frontend whose latest release is stamped
	// as the web version.
	DefaultWebRepo = "OpenListTeam/OpenList-Frontend"
)

var ErrConfigNotFound = errors.New("config file not found")

type Config struct {
	App     AppConfig     `yaml:"app"`
	Web     WebConfig     `yaml:"web"`
	Build   BuildConfig   `yaml:"build"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Package string `yaml:"package"`
	Main    string `yaml:"main"`
}

type WebConfig struct {
	Repo     string `yaml:"repo"`
	Timeout  string `yaml:"timeout"`
	Disabled bool   `yaml:"disabled"`
}

type BuildConfig struct {
	Strip         *bool  `yaml:"strip"`
	MaxOutputSize int    `yaml:"max_output_size"`
	MetricsFile   string `yaml:"metrics_file"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	PathPrefix string `yaml:"path_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty *bool  `yaml:"pretty"`
}

// Env is the process state the pipeline depends on. It is captured once in
// main and handed down so nothing below reads the ambient environment.
type Env struct {
	WorkDir string
	Path    []string
}

// CurrentEnv captures the working directory and executable search path.
func CurrentEnv() (Env, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Env{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	return Env{
		WorkDir: wd,
		Path:    filepath.SplitList(os.Getenv("PATH")),
	}, nil
}

// Environ returns the inherited environment with PATH replaced by e.Path,
// for use as exec.Cmd.Env.
func (e Env) Environ() []string {
	environ := os.Environ()
	if len(e.Path) == 0 {
		return environ
	}
	return append(environ, "PATH="+strings.Join(e.Path, string(os.PathListSeparator)))
}

func (c *WebConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// StripSymbols reports whether -s -w should be passed to the linker.
func (c *BuildConfig) StripSymbols() bool {
	return c.Strip == nil || *c.Strip
}

func (c *LogConfig) IsPretty() bool {
	return c.Pretty == nil || *c.Pretty
}

// Load reads the config file at path and fills in defaults derived from env.
// An empty path yields a config made only of defaults.
func Load(path string, env Env) (*Config, error) {
	var cfg Config

	if path != "" {
		if !filepath.IsAbs(path) && env.WorkDir != "" {
			path = filepath.Join(env.WorkDir, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, err
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	setDefaults(&cfg, env)

	return &cfg, nil
}

func setDefaults(cfg *Config, env Env) {
	if cfg.App.Name == "" {
		cfg.App.Name = filepath.Base(env.WorkDir)
		if env.WorkDir == "" || cfg.App.Name == string(filepath.Separator) {
			cfg.App.Name = "app"
		}
	}
	if cfg.App.Package == "" {
		cfg.App.Package = defaultPackage(env.WorkDir)
	}
	if cfg.App.Main == "" {
		cfg.App.Main = "."
	}
	if cfg.Web.Repo == "" && !cfg.Web.Disabled {
		cfg.Web.Repo = DefaultWebRepo
	}
	if cfg.Web.Timeout == "" {
		cfg.Web.Timeout = "5s"
	}
	if cfg.Build.MaxOutputSize == 0 {
		cfg.Build.MaxOutputSize = 1 << 20
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(".buildstamp", "history.db")
	}
	if !filepath.IsAbs(cfg.History.Path) && env.WorkDir != "" {
		cfg.History.Path = filepath.Join(env.WorkDir, cfg.History.Path)
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// defaultPackage points the link variables at <module>/internal/version,
// falling back to package main when there is no readable go.mod.
func defaultPackage(workDir string) string {
	data, err := os.ReadFile(filepath.Join(workDir, "go.mod"))
	if err != nil {
		return "main"
	}

	modPath := modfile.ModulePath(data)
	if modPath == "" {
		return "main"
	}
	return modPath + "/internal/version"
}
