package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"hydrogen/hydrogenctl/rpc"
)

var myTableStyle = table.Style{
	Name: "myNewStyle",
	Box: table.BoxStyle{
		MiddleHorizontal: "-", // bug in go-pretty causes panic if this is empty
		PaddingRight:     "  ",
	},
	Format: table.FormatOptions{
		Footer: text.FormatUpper,
		Header: text.FormatUpper,
		Row:    text.FormatDefault,
	},
	Options: table.Options{
		DrawBorder:      false,
		SeparateColumns: false,
		SeparateFooter:  false,
		SeparateHeader:  false,
		SeparateRows:    false,
	},
}

var (
	cfgFile      string
	Humanize     = true
	CheckReqStat = false
)

var (
	defaultHost    = "localhost"
	defaultPort    = 50051
	defaultTimeout = 5
)

const (
	TXT = iota
	JSON
	YAML
)

var outputFormatString = "txt"

var rootCmd = &cobra.Command{
	Use:     "hydrogenctl",
	Version: mainVersion,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return rpc.GetConn()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		rpc.Finish()
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hydrogenctl")
	}

	viper.SetEnvPrefix("HYDROGENCTL")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	rpc.ServerName = viper.GetString("server")
	rpc.ServerPort = viper.GetUint16("port")
	rpc.ServerTimeout = viper.GetInt64("timeout")

	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
}

func parseOutputFormat(format string) (int, error) {
	switch strings.ToLower(format) {
	case "txt", "text", "":
		return TXT, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return TXT, errUnknownFormat
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}

	return context.Background()
}

// rpcContext bounds a single call to the server by the configured timeout.
func rpcContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmdContext(cmd), rpc.Timeout())
}
