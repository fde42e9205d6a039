package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydrogen/hydrogenctl/rpc"
)

var HostCmd = &cobra.Command{
	Use:          "host",
	Short:        "Show the hypervisor host served by hydrogend",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := parseOutputFormat(outputFormatString)
		if err != nil {
			return err
		}

		ctx, cancel := rpcContext(cmd)
		defer cancel()

		info, err := rpc.GetHostInfo(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", errHostNotAvailable, err)
		}

		return renderHostInfo(cmd.OutOrStdout(), info, format)
	},
}

func init() {
	disableFlagSorting(HostCmd)
	addFormatArg(HostCmd)
}
