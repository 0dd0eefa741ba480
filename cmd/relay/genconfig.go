package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ZentaChain/chatrelay/pkg/config"
)

func genconfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "genconfig",
		Short: "Print a config file with every default filled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := config.Default().Encode()
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			return os.WriteFile(output, b, 0600)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
