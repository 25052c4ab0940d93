package main

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/modelyard/onnx-runner/pkg/ort"
	"github.com/modelyard/onnx-runner/pkg/sysres"
)

// doctor verifies the runtime capability up front so that a misconfigured
// host fails here, with a diagnosis, rather than at the first model load.
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report host resources and ONNX Runtime availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			report := sysres.Report(componentLog("sysres"))
			fmt.Fprintf(out, "host: %s/%s\n", report.OS, report.Arch)
			fmt.Fprintf(out, "cpus: %d\n", report.CPUs)
			fmt.Fprintf(out, "memory: %s\n", units.BytesSize(float64(report.TotalRAM)))
			if len(report.GPUs) == 0 {
				fmt.Fprintln(out, "gpus: none")
			} else {
				for _, gpu := range report.GPUs {
					fmt.Fprintf(out, "gpu: %s\n", gpu)
				}
			}

			rt, err := ort.NewRuntime(componentLog("ort"), ort.Config{
				LibraryPath: activeCfg.Runtime.ORTLibraryPath,
				APIVersion:  uint32(activeCfg.Runtime.ORTAPIVersion),
			})
			if err != nil {
				fmt.Fprintf(out, "onnxruntime: unavailable (%v)\n", err)
				return err
			}
			defer rt.Close()
			info := rt.Info()
			fmt.Fprintf(out, "onnxruntime: %s\n", info.LibraryPath)
			fmt.Fprintf(out, "onnxruntime version: %s\n", info.Version)
			fmt.Fprintf(out, "providers: %v\n", rt.AvailableProviders())
			return nil
		},
	}
}
