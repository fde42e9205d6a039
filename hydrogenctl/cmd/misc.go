package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydrogen/hydrogenctl/rpc"
)

var ReqID string

var ReqStatCmd = &cobra.Command{
	Use:          "req-stat",
	Short:        "Get status of request",
	Long:         "Check if a server request has completed and if it was successful",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := rpcContext(cmd)
		defer cancel()

		res, err := rpc.ReqStat(ctx, ReqID)
		if err != nil {
			return fmt.Errorf("error checking request status: %w", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "req status: complete=%v, success=%v, in progress=%v\n",
			res.Complete, res.Success, res.InProgress)

		return nil
	},
}

func init() {
	disableFlagSorting(ReqStatCmd)
	ReqStatCmd.Flags().StringVarP(&ReqID, "id", "i", ReqID, "ID of request")

	err := ReqStatCmd.MarkFlagRequired("id")
	if err != nil {
		panic(err)
	}
}
