package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelyard/onnx-runner/pkg/onnx"
)

func newSaveCmd() *cobra.Command {
	var (
		labels  []string
		inputs  []string
		outputs []string
	)

	cmd := &cobra.Command{
		Use:   "save NAME MODEL_FILE",
		Short: "Save an ONNX model file into the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, modelFile := args[0], args[1]

			store, err := openStore()
			if err != nil {
				return err
			}

			metadata := make(map[string]any, len(labels))
			for _, label := range labels {
				key, value, found := strings.Cut(label, "=")
				if !found {
					return fmt.Errorf("invalid label %q, expected key=value", label)
				}
				metadata[key] = value
			}

			if len(inputs) > 0 || len(outputs) > 0 {
				signature, err := parseSignature(inputs, outputs)
				if err != nil {
					return err
				}
				metadata = onnx.EmbedSignature(metadata, signature)
			}

			tag, err := onnx.Save(store, name, onnx.FilePath(modelFile), metadata)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tag)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&labels, "label", nil, "Metadata label in key=value form (repeatable)")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Model input node as name:dtype (repeatable)")
	cmd.Flags().StringSliceVar(&outputs, "output", nil, "Model output node as name:dtype (repeatable)")
	return cmd
}

// parseSignature decodes name:dtype node declarations. The dtype part is
// optional.
func parseSignature(inputs, outputs []string) (onnx.Signature, error) {
	parse := func(nodes []string) ([]onnx.NodeInfo, error) {
		var parsed []onnx.NodeInfo
		for _, node := range nodes {
			name, dtype, _ := strings.Cut(node, ":")
			if name == "" {
				return nil, fmt.Errorf("invalid node declaration %q, expected name:dtype", node)
			}
			parsed = append(parsed, onnx.NodeInfo{Name: name, DType: dtype})
		}
		return parsed, nil
	}

	in, err := parse(inputs)
	if err != nil {
		return onnx.Signature{}, err
	}
	out, err := parse(outputs)
	if err != nil {
		return onnx.Signature{}, err
	}
	return onnx.Signature{Inputs: in, Outputs: out}, nil
}
