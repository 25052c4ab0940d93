// Package config loads the onnxrunner configuration from defaults, an
// optional config file, environment variables, and command line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/modelyard/onnx-runner/pkg/onnx"
)

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Log     LogConfig     `mapstructure:"log"`
}

type StoreConfig struct {
	// Root is the model store root directory.
	Root string `mapstructure:"root"`
}

type RuntimeConfig struct {
	Backend        string   `mapstructure:"backend"`
	Providers      []string `mapstructure:"providers"`
	ORTLibraryPath string   `mapstructure:"ort_library_path"`
	ORTAPIVersion  int      `mapstructure:"ort_api_version"`
	IntraOpThreads int      `mapstructure:"intra_op_threads"`
	InterOpThreads int      `mapstructure:"inter_op_threads"`
	// SessionFlags holds extra session flags in shell syntax, split with
	// shell quoting rules before being handed to the session loader.
	SessionFlags string `mapstructure:"session_flags"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Root: "models",
		},
		Runtime: RuntimeConfig{
			Backend:        onnx.BackendONNXRuntime,
			Providers:      nil,
			ORTLibraryPath: "",
			ORTAPIVersion:  0,
			IntraOpThreads: 0,
			InterOpThreads: 0,
			SessionFlags:   "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("store-root", defaults.Store.Root, "Model store root directory")
	fs.String("runtime-backend", defaults.Runtime.Backend, "Runtime backend identifier")
	fs.StringSlice("runtime-providers", defaults.Runtime.Providers, "Execution providers in priority order")
	fs.String("runtime-ort-library-path", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library (alias for --runtime-ort-library-path)")
	fs.Int("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version (0 selects the library default)")
	fs.Int("runtime-intra-op-threads", defaults.Runtime.IntraOpThreads, "Session intra-op thread count")
	fs.Int("runtime-inter-op-threads", defaults.Runtime.InterOpThreads, "Session inter-op thread count")
	fs.String("runtime-session-flags", defaults.Runtime.SessionFlags, "Extra session flags, shell quoted")
	fs.String("log-level", defaults.Log.Level, "Log level (trace, debug, info, warn, error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("ONNXRUNNER")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "ONNXRUNNER_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("onnxrunner")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// SessionOptions converts the runtime section into session options,
// splitting SessionFlags with shell quoting rules.
func (c RuntimeConfig) SessionOptions() (onnx.SessionOptions, error) {
	flags, err := shellwords.Parse(c.SessionFlags)
	if err != nil {
		return onnx.SessionOptions{}, fmt.Errorf("parse session flags: %w", err)
	}
	return onnx.SessionOptions{
		IntraOpThreads: c.IntraOpThreads,
		InterOpThreads: c.InterOpThreads,
		Flags:          flags,
	}, nil
}

// ProviderSpecs widens the configured provider list to the heterogeneous
// form accepted by provider normalization.
func (c RuntimeConfig) ProviderSpecs() []onnx.ProviderSpec {
	if len(c.Providers) == 0 {
		return nil
	}
	specs := make([]onnx.ProviderSpec, 0, len(c.Providers))
	for _, provider := range c.Providers {
		specs = append(specs, provider)
	}
	return specs
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("store.root", c.Store.Root)
	v.SetDefault("runtime.backend", c.Runtime.Backend)
	v.SetDefault("runtime.providers", c.Runtime.Providers)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("runtime.intra_op_threads", c.Runtime.IntraOpThreads)
	v.SetDefault("runtime.inter_op_threads", c.Runtime.InterOpThreads)
	v.SetDefault("runtime.session_flags", c.Runtime.SessionFlags)
	v.SetDefault("log.level", c.Log.Level)
}

// bindFlags binds each flag to its nested configuration key. Binding per key
// keeps the nested keys canonical, so config file values still resolve when a
// flag is left at its default.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"store.root":               "store-root",
		"runtime.backend":          "runtime-backend",
		"runtime.providers":        "runtime-providers",
		"runtime.ort_library_path": "runtime-ort-library-path",
		"runtime.ort_api_version":  "runtime-ort-api-version",
		"runtime.intra_op_threads": "runtime-intra-op-threads",
		"runtime.inter_op_threads": "runtime-inter-op-threads",
		"runtime.session_flags":    "runtime-session-flags",
		"log.level":                "log-level",
	}
	for key, name := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	// --ort-lib is a convenience alias; when set it wins over the canonical
	// flag.
	if flag := fs.Lookup("ort-lib"); flag != nil && flag.Changed {
		if err := v.BindPFlag("runtime.ort_library_path", flag); err != nil {
			return err
		}
	}
	return nil
}
