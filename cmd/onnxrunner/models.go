package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			records, err := store.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tSIZE\tDIGEST\tCREATED")
			for _, record := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s ago\n",
					record.Tag,
					units.HumanSize(float64(record.Size)),
					record.Digest.Encoded()[:12],
					units.HumanDuration(time.Since(record.CreatedAt)),
				)
			}
			return w.Flush()
		},
	}
}
