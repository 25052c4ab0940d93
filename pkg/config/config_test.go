package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/modelyard/onnx-runner/pkg/onnx"
)

// flagCmd adapts a bare flag set to the LoadOptions binder.
type flagCmd struct {
	fs *pflag.FlagSet
}

func (c flagCmd) Flags() *pflag.FlagSet {
	return c.fs
}

func parsedFlags(t *testing.T, args ...string) flagCmd {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())
	require.NoError(t, fs.Parse(args))
	return flagCmd{fs: fs}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "onnxrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	require.Equal(t, "models", cfg.Store.Root)
	require.Equal(t, onnx.BackendONNXRuntime, cfg.Runtime.Backend)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ONNXRUNNER_STORE_ROOT", "/srv/models")
	t.Setenv("ONNXRUNNER_LOG_LEVEL", "debug")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	require.Equal(t, "/srv/models", cfg.Store.Root)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onnxrunner.yaml")
	content := []byte("store:\n  root: /data/models\nruntime:\n  backend: onnxruntime-gpu\n  providers:\n    - CUDAExecutionProvider\n    - CPUExecutionProvider\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(LoadOptions{ConfigFile: path, Defaults: DefaultConfig()})
	require.NoError(t, err)
	require.Equal(t, "/data/models", cfg.Store.Root)
	require.Equal(t, onnx.BackendONNXRuntimeGPU, cfg.Runtime.Backend)
	require.Equal(t, []string{"CUDAExecutionProvider", "CPUExecutionProvider"}, cfg.Runtime.Providers)
}

func TestLoadConfigFileWithBoundFlags(t *testing.T) {
	// Flags left at their defaults must not mask values from the config
	// file.
	path := writeConfigFile(t, "store:\n  root: /data/models\nlog:\n  level: warn\n")

	cfg, err := Load(LoadOptions{
		Cmd:        parsedFlags(t),
		ConfigFile: path,
		Defaults:   DefaultConfig(),
	})
	require.NoError(t, err)
	require.Equal(t, "/data/models", cfg.Store.Root)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFlagOverridesConfigFile(t *testing.T) {
	path := writeConfigFile(t, "store:\n  root: /data/models\nlog:\n  level: warn\n")

	cfg, err := Load(LoadOptions{
		Cmd:        parsedFlags(t, "--store-root", "/flag/models"),
		ConfigFile: path,
		Defaults:   DefaultConfig(),
	})
	require.NoError(t, err)
	require.Equal(t, "/flag/models", cfg.Store.Root)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadOrtLibAlias(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Cmd:      parsedFlags(t, "--ort-lib", "/opt/ort/libonnxruntime.so"),
		Defaults: DefaultConfig(),
	})
	require.NoError(t, err)
	require.Equal(t, "/opt/ort/libonnxruntime.so", cfg.Runtime.ORTLibraryPath)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
		Defaults:   DefaultConfig(),
	})
	require.Error(t, err)
}

func TestSessionOptionsSplitsFlags(t *testing.T) {
	rc := RuntimeConfig{
		IntraOpThreads: 4,
		InterOpThreads: 2,
		SessionFlags:   `--enable-profiling --profile-prefix "run one"`,
	}
	opts, err := rc.SessionOptions()
	require.NoError(t, err)
	require.Equal(t, 4, opts.IntraOpThreads)
	require.Equal(t, 2, opts.InterOpThreads)
	require.Equal(t, []string{"--enable-profiling", "--profile-prefix", "run one"}, opts.Flags)
}

func TestSessionOptionsRejectsUnbalancedQuotes(t *testing.T) {
	_, err := RuntimeConfig{SessionFlags: `--tag "unterminated`}.SessionOptions()
	require.Error(t, err)
}

func TestProviderSpecs(t *testing.T) {
	require.Nil(t, RuntimeConfig{}.ProviderSpecs())
	require.Equal(t,
		[]onnx.ProviderSpec{"a", "b"},
		RuntimeConfig{Providers: []string{"a", "b"}}.ProviderSpecs(),
	)
}
