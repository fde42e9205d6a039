package cmd

import "github.com/spf13/cobra"

func init() {
	disableFlagSorting(VMCmd)

	VMListCmd.Flags().BoolVarP(&OnlineOnly, "online", "o", OnlineOnly, "Only list online VMs")
	addFormatArg(VMListCmd)
	VMListCmd.Flags().BoolVarP(&Humanize, "human", "H", Humanize, "Print last seen times in human readable form")
	VMCmd.AddCommand(VMListCmd)

	addNameOrIDArgs(VMGetCmd, &VMName, &VMID, "VM")
	addFormatArg(VMGetCmd)
	VMCmd.AddCommand(VMGetCmd)

	for _, powerCmd := range []*cobra.Command{VMStartCmd, VMShutdownCmd, VMRebootCmd, VMResetCmd, VMStopCmd} {
		disableFlagSorting(powerCmd)
		addNameOrIDArgs(powerCmd, &VMName, &VMID, "VM")
		powerCmd.Flags().BoolVarP(&CheckReqStat, "wait", "w", CheckReqStat, "Wait for the request to complete")
		VMCmd.AddCommand(powerCmd)
	}

	addNameOrIDArgs(VMMenuCmd, &VMName, &VMID, "VM")
	VMMenuCmd.Flags().StringVar(&MenuInvoke, "invoke", MenuInvoke, "Run the menu entry with this label")
	VMCmd.AddCommand(VMMenuCmd)

	disableFlagSorting(VMCreateCmd)
	VMCreateCmd.Flags().StringVarP(&NewVM.Hostname, "name", "n", NewVM.Hostname, "Hostname of the new VM")
	VMCreateCmd.Flags().StringVar(&NewVM.OS, "os", NewVM.OS, "OS image to back the disk with")
	VMCreateCmd.Flags().Uint32Var(&NewVM.VCPUs, "cpus", 1, "Number of virtual CPUs")
	VMCreateCmd.Flags().Uint32Var(&NewVM.MemoryGiB, "mem", 1, "Memory in GiB")
	VMCreateCmd.Flags().Uint32Var(&NewVM.DiskGiB, "disk", 10, "Disk size in GiB")
	VMCreateCmd.Flags().Uint32Var(&NewVM.Bridge, "bridge", NewVM.Bridge, "Index of the host bridge")
	VMCreateCmd.Flags().StringVar(&NewVM.Gateway, "gateway", NewVM.Gateway, "Bridge address in CIDR form")
	VMCreateCmd.Flags().StringVar(&NewVM.Address, "address", NewVM.Address, "VM address in CIDR form")
	VMCreateCmd.Flags().StringArrayVar(&NewVM.SSHKeys, "ssh-key", NewVM.SSHKeys, "Authorized ssh key, may be repeated")
	VMCreateCmd.Flags().BoolVarP(&CheckReqStat, "wait", "w", CheckReqStat, "Wait for the request to complete")

	for _, required := range []string{"name", "os", "gateway", "address"} {
		_ = VMCreateCmd.MarkFlagRequired(required)
	}
	VMCmd.AddCommand(VMCreateCmd)

	VMCmd.AddCommand(VMValidateCmd)
}
