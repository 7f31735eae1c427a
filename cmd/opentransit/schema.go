package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opentransit.org/internal/graph"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), graph.SDL())
			return err
		},
	}
}
