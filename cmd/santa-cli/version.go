package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frostbyte-dev/santa-ring/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the santa-cli version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
