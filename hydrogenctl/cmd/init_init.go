package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func disableFlagSorting(cmd *cobra.Command) {
	cmd.Flags().SortFlags = false
	cmd.PersistentFlags().SortFlags = false
	cmd.InheritedFlags().SortFlags = false
}

func addNameOrIDArgs(cmd *cobra.Command, nameArg *string, idArg *string, objTypeName string) {
	cmd.Flags().StringVarP(nameArg, "name", "n", *nameArg, "Name of "+objTypeName)
	cmd.Flags().StringVarP(idArg, "id", "i", *idArg, "ID of "+objTypeName)
	cmd.MarkFlagsOneRequired("name", "id")
	cmd.MarkFlagsMutuallyExclusive("name", "id")
}

func addFormatArg(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormatString, "format", "f", outputFormatString, "Output format (txt, json, yaml)")
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.EnableCommandSorting = false

	disableFlagSorting(rootCmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile,
		"config", "C", cfgFile, "config file (default $HOME/.hydrogenctl.yaml)")

	rootCmd.PersistentFlags().StringP("server", "S", defaultHost, "server")

	err := viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	if err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().Uint16P("port", "P", uint16(defaultPort), "port")

	err = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	if err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().Int64P("timeout", "T", int64(defaultTimeout), "timeout in seconds")

	err = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(VMCmd)
	rootCmd.AddCommand(TuiCmd)
	rootCmd.AddCommand(HostCmd)
	rootCmd.AddCommand(ReqStatCmd)
	rootCmd.AddCommand(VersionCmd)
}
