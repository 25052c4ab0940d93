package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/modelyard/onnx-runner/pkg/config"
	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/registry"
)

var (
	cfgFile   string
	activeCfg config.Config
	rootLog   = logrus.New()
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "onnxrunner",
		Short:         "ONNX model store and runner provisioning command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			return setupLogger(loaded.Log.Level)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide logrus logger.
func setupLogger(levelStr string) error {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	rootLog.SetLevel(level)
	return nil
}

// componentLog returns a logger scoped to one CLI component.
func componentLog(component string) logging.Logger {
	return logging.NewComponent(rootLog, component)
}

// openStore opens the configured model store.
func openStore() (*registry.FSStore, error) {
	return registry.NewFSStore(componentLog("store"), activeCfg.Store.Root)
}
