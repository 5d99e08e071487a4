package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcosson/mprocs-go/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mprocs-go version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.DisplayVersion())
			return nil
		},
	}
}
