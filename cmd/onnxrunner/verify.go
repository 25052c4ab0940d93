package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelyard/onnx-runner/pkg/onnx"
	"github.com/modelyard/onnx-runner/pkg/ort"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify TAG",
		Short: "Open a stored model as an inference session and report on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			rt, err := ort.NewRuntime(componentLog("ort"), ort.Config{
				LibraryPath: activeCfg.Runtime.ORTLibraryPath,
				APIVersion:  uint32(activeCfg.Runtime.ORTAPIVersion),
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			opts, err := activeCfg.Runtime.SessionOptions()
			if err != nil {
				return err
			}

			session, err := onnx.Load(cmd.Context(), store, rt, args[0], onnx.LoadConfig{
				Backend:        activeCfg.Runtime.Backend,
				Providers:      activeCfg.Runtime.ProviderSpecs(),
				SessionOptions: &opts,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s loaded\n", args[0])
			fmt.Fprintf(out, "runtime: %s (%s)\n", rt.Info().LibraryPath, rt.Info().Version)
			fmt.Fprintf(out, "providers: %v\n", rt.AvailableProviders())
			signature := session.Signature()
			for _, input := range signature.Inputs {
				fmt.Fprintf(out, "input: %s (%s)\n", input.Name, input.DType)
			}
			for _, output := range signature.Outputs {
				fmt.Fprintf(out, "output: %s (%s)\n", output.Name, output.DType)
			}
			return nil
		},
	}
}
