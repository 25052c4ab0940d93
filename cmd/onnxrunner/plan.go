package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelyard/onnx-runner/pkg/onnx"
	"github.com/modelyard/onnx-runner/pkg/sysres"
)

func newPlanCmd() *cobra.Command {
	var (
		cpus float64
		gpus []string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the replica topology for a resource quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quota := onnx.ResourceQuota{CPU: cpus, GPUs: gpus}
			if cpus == 0 && len(gpus) == 0 {
				quota = sysres.DetectQuota(componentLog("sysres"))
			}
			if err := quota.Validate(); err != nil {
				return err
			}

			topology := onnx.PlanTopology(quota)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "quota: cpu=%g gpus=%v\n", quota.CPU, quota.GPUs)
			fmt.Fprintf(out, "replicas: %d\n", topology.Replicas)
			fmt.Fprintf(out, "concurrency per replica: %d\n", topology.ConcurrencyPerReplica)
			return nil
		},
	}

	cmd.Flags().Float64Var(&cpus, "cpus", 0, "CPU share assigned to the runner (0 detects the host)")
	cmd.Flags().StringSliceVar(&gpus, "gpus", nil, "GPU device identifiers assigned to the runner")
	return cmd
}
