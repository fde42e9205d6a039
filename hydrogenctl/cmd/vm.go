package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/menu"
	"hydrogen/hydrogenctl/rpc"
)

var (
	VMName     string
	VMID       string
	OnlineOnly bool
	MenuInvoke string
	NewVM      hydrogen.CreateReq
)

var reqPollInterval = time.Second

func resolveVMID(ctx context.Context) (string, error) {
	if VMID != "" {
		return VMID, nil
	}

	if VMName == "" {
		return "", errVMEmptyName
	}

	vmID, err := rpc.VMNameToID(ctx, VMName)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", errVMNotFound, VMName)
		}

		return "", fmt.Errorf("failed getting VM ID: %w", err)
	}

	return vmID, nil
}

var VMListCmd = &cobra.Command{
	Use:          "list",
	Short:        "list VMs",
	Long:         "List all VMs known to the server and their state",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := parseOutputFormat(outputFormatString)
		if err != nil {
			return err
		}

		ctx, cancel := rpcContext(cmd)
		defer cancel()

		entries, err := rpc.GetVMs(ctx, OnlineOnly)
		if err != nil {
			return fmt.Errorf("failed getting VM list: %w", err)
		}

		return renderVMs(cmd.OutOrStdout(), entries, format)
	},
}

var VMGetCmd = &cobra.Command{
	Use:          "get",
	Short:        "Get info on a VM",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := parseOutputFormat(outputFormatString)
		if err != nil {
			return err
		}

		ctx, cancel := rpcContext(cmd)
		defer cancel()

		vmID, err := resolveVMID(ctx)
		if err != nil {
			return err
		}

		entry, err := rpc.GetVM(ctx, vmID)
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return fmt.Errorf("%w: %s", errVMNotFound, vmID)
			}

			return fmt.Errorf("failed getting VM: %w", err)
		}

		return renderVM(cmd.OutOrStdout(), entry, format)
	},
}

func waitReq(ctx context.Context, w io.Writer, reqID string, what string) error {
	_, _ = fmt.Fprintf(w, "%s: ", what)

	for {
		reqCtx, cancel := context.WithTimeout(ctx, rpc.Timeout())
		reqStat, err := rpc.ReqStat(reqCtx, reqID)

		cancel()

		if err != nil {
			_, _ = fmt.Fprint(w, "\n")

			return fmt.Errorf("failed checking request status: %w", err)
		}

		if reqStat.Complete {
			if reqStat.Success {
				_, _ = fmt.Fprint(w, " done\n")

				return nil
			}

			_, _ = fmt.Fprint(w, " failed\n")

			return errReqFailed
		}

		_, _ = fmt.Fprint(w, ".")

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for request %s: %w", reqID, ctx.Err())
		case <-time.After(reqPollInterval):
		}
	}
}

func requestPower(cmd *cobra.Command, action hydrogen.PowerAction) error {
	ctx, cancel := rpcContext(cmd)
	defer cancel()

	vmID, err := resolveVMID(ctx)
	if err != nil {
		return err
	}

	reqID, err := rpc.RequestPower(ctx, vmID, action)
	if err != nil {
		return fmt.Errorf("failed requesting %s: %w", action, err)
	}

	if !CheckReqStat {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s requested, request ID %s\n", action, reqID)

		return nil
	}

	return waitReq(cmdContext(cmd), cmd.OutOrStdout(), reqID, "Requesting "+string(action))
}

func newPowerCmd(action hydrogen.PowerAction, short string) *cobra.Command {
	return &cobra.Command{
		Use:          string(action),
		Short:        short,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requestPower(cmd, action)
		},
	}
}

var (
	VMStartCmd    = newPowerCmd(hydrogen.PowerStart, "Start a VM")
	VMShutdownCmd = newPowerCmd(hydrogen.PowerShutdown, "Ask a VM to shut down")
	VMRebootCmd   = newPowerCmd(hydrogen.PowerReboot, "Ask a VM to reboot")
	VMResetCmd    = newPowerCmd(hydrogen.PowerReset, "Reset a VM")
	VMStopCmd     = newPowerCmd(hydrogen.PowerStop, "Force a VM off")
)

var VMCreateCmd = &cobra.Command{
	Use:          "create",
	Short:        "Provision a new VM",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := rpcContext(cmd)
		defer cancel()

		reqID, err := rpc.CreateVM(ctx, NewVM)
		if err != nil {
			return fmt.Errorf("failed requesting create: %w", err)
		}

		if !CheckReqStat {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "create requested, request ID %s\n", reqID)

			return nil
		}

		err = waitReq(cmdContext(cmd), cmd.OutOrStdout(), reqID, "Creating "+NewVM.Hostname)
		if err != nil {
			return err
		}

		idCtx, idCancel := rpcContext(cmd)
		defer idCancel()

		// the daemon learns the uuid once libvirt reports the new domain
		vmID, err := rpc.VMNameToID(idCtx, NewVM.Hostname)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s created, not yet listed\n", NewVM.Hostname)

			return nil
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s created with ID %s\n", NewVM.Hostname, vmID)

		return nil
	},
}

// validateFile checks one local document, which holds either a single VM or
// a list of them, and returns how many VMs it describes.
func validateFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", path, err)
	}

	var parsed any

	err = yaml.Unmarshal(data, &parsed)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", hydrogen.ErrInvalidVM, err)
	}

	if _, isList := parsed.([]any); isList {
		vms, err := hydrogen.ParseVMs(data)
		if err != nil {
			return 0, err
		}

		return len(vms), nil
	}

	_, err = hydrogen.ParseVM(data)
	if err != nil {
		return 0, err
	}

	return 1, nil
}

var VMValidateCmd = &cobra.Command{
	Use:          "validate FILE...",
	Short:        "Validate VM documents",
	Long:         "Check that local JSON or YAML files hold well formed VM records",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	// works offline
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0

		for _, path := range args {
			count, err := validateFile(path)
			if err != nil {
				failed++

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)

				continue
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d VMs)\n", path, count)
		}

		if failed > 0 {
			return fmt.Errorf("%w: %d of %d files", errInvalidFiles, failed, len(args))
		}

		return nil
	},
}

// cliPowerer carries out menu actions from the command line and remembers
// the first failure so the command can exit non-zero.
type cliPowerer struct {
	ctx context.Context //nolint:containedctx
	out io.Writer
	err error
}

func (p *cliPowerer) Power(id string, action hydrogen.PowerAction) error {
	reqID, err := rpc.RequestPower(p.ctx, id, action)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(p.out, "%s requested, request ID %s\n", action, reqID)

	return nil
}

func (p *cliPowerer) CopyText(text string) error {
	return copyToClipboard(p.out, text)
}

func (p *cliPowerer) Failed(label string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %w", label, err)
	}
}

var VMMenuCmd = &cobra.Command{
	Use:          "menu",
	Short:        "Show or run the actions offered for a VM",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := rpcContext(cmd)
		defer cancel()

		vmID, err := resolveVMID(ctx)
		if err != nil {
			return err
		}

		entry, err := rpc.GetVM(ctx, vmID)
		if err != nil {
			return fmt.Errorf("failed getting VM: %w", err)
		}

		powerer := &cliPowerer{ctx: ctx, out: cmd.OutOrStdout()}
		items := menu.ForVM(entry.VM, powerer)

		if MenuInvoke == "" {
			menuTableWriter := table.NewWriter()
			menuTableWriter.SetOutputMirror(cmd.OutOrStdout())
			menuTableWriter.SetStyle(myTableStyle)
			menuTableWriter.AppendHeader(table.Row{"LABEL", "ICON"})

			for _, item := range items {
				menuTableWriter.AppendRow(table.Row{item.Label, item.Icon})
			}

			menuTableWriter.Render()

			return nil
		}

		item, err := menu.Find(items, MenuInvoke)
		if err != nil {
			return err
		}

		err = menu.Invoke(item, menu.Event{Source: menu.SourceCLI, When: time.Now()})
		if err != nil {
			return err
		}

		return powerer.err
	},
}

var VMCmd = &cobra.Command{
	Use:   "vm",
	Short: "Inspect and power VMs",
}
