package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/rendergraph/logger"
)

// FileSystem is the file access LoadConfig needs. Tests replace it to control
// which files resolution finds.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real file system.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv sets the variables of a .env file that are not already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Files are the config and env files chosen for an application. Either may be
// empty when nothing was found.
type Files struct {
	Config string
	Env    string
}

// Resolver picks the config and env files of an application.
type Resolver struct {
	FS FileSystem
}

// Resolve returns the explicit files of opts, and searches for the missing
// ones in the application's directories. See SearchDirs for the order.
func (r *Resolver) Resolve(name string, opts LoaderOptions) Files {
	files := Files{Config: opts.ConfigFile, Env: opts.EnvFile}
	dirs := SearchDirs(name)
	if files.Config == "" {
		files.Config = r.first(dirs, "config.yml", "config.yaml", name+".yml", name+".yaml")
	}
	if files.Env == "" {
		files.Env = r.first(dirs, ".env."+name, ".env")
	}
	return files
}

// first returns the first existing file, trying every name in a directory
// before moving to the next directory.
func (r *Resolver) first(dirs []string, names ...string) string {
	for _, dir := range dirs {
		for _, n := range names {
			path := filepath.Join(dir, n)
			if r.FS.Exists(path) {
				return path
			}
		}
	}
	return ""
}

// SearchDirs lists where the files of application name are looked for:
// cmd/<name> from the working directory and up to two parents, then
// config/<name>, config and the working directory itself. A name such as
// "rg-studio" also tries its last segment, cmd/studio.
func SearchDirs(name string) []string {
	short := name
	if i := strings.LastIndex(name, "-"); i != -1 {
		short = name[i+1:]
	}

	var dirs []string
	for _, up := range []string{".", "..", filepath.Join("..", "..")} {
		dirs = append(dirs, filepath.Join(up, "cmd", name))
		if short != name {
			dirs = append(dirs, filepath.Join(up, "cmd", short))
		}
	}
	return append(dirs, filepath.Join("config", name), "config", ".")
}

// LoaderOptions holds the file system and the optional overrides of LoadConfig.
type LoaderOptions struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// EnvPrefix is prepended to every variable name, e.g. "RG" reads
	// RG_VALIDATION_MAX_PASSES.
	EnvPrefix string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderOptions)

// WithFileSystem sets the file system used to find and read files.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(o *LoaderOptions) { o.FileSystem = fs }
}

// WithConfigFile uses path instead of searching for a config file.
func WithConfigFile(path string) LoaderOption {
	return func(o *LoaderOptions) { o.ConfigFile = path }
}

// WithEnvFile uses path instead of searching for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(o *LoaderOptions) { o.EnvFile = path }
}

// WithEnvPrefix namespaces the environment variables read by LoadConfig.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(o *LoaderOptions) { o.EnvPrefix = prefix }
}

// LoadConfig fills cfg for application name from, in increasing priority, the
// config file, the .env file and the process environment. Every config key
// maps to one variable: validation.max_passes is VALIDATION_MAX_PASSES.
//
// Name defaults to the application name. Defaults are applied and the result
// is validated, so a nil error means cfg is ready for use.
func LoadConfig(name string, cfg *Config, opts ...LoaderOption) error {
	o := LoaderOptions{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&o)
	}

	files := (&Resolver{FS: o.FileSystem}).Resolve(name, o)
	v := viper.New()

	if files.Config != "" && o.FileSystem.Exists(files.Config) {
		v.SetConfigFile(files.Config)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", files.Config, err)
		}
		logger.Debug("config file loaded", logger.Fields("file", files.Config))
	}

	if files.Env != "" && o.FileSystem.Exists(files.Env) {
		if err := o.FileSystem.LoadEnv(files.Env); err != nil {
			logger.Warn("failed to load env file", logger.Fields("file", files.Env, logger.FieldError, err.Error()))
		}
	}

	for _, key := range Keys() {
		if err := v.BindEnv(key, EnvVar(o.EnvPrefix, key)); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding config for %s: %w", name, err)
	}

	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", name, err)
	}
	return nil
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}

// Keys returns the dotted key of every leaf field of Config, in field order.
func Keys() []string {
	return collectKeys(reflect.TypeOf(Config{}), "")
}

func collectKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, collectKeys(f.Type, prefix+tag+".")...)
			continue
		}
		keys = append(keys, prefix+tag)
	}
	return keys
}
