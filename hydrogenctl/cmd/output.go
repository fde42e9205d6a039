package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"hydrogen/hydrogen"
)

func stateString(online bool) string {
	if online {
		return color.GreenString("ONLINE")
	}

	return color.RedString("OFFLINE")
}

func lastSeenString(lastSeen time.Time) string {
	if lastSeen.IsZero() {
		return "never"
	}

	if Humanize {
		return humanize.Time(lastSeen)
	}

	return lastSeen.Format(time.RFC3339)
}

// printStructured writes v as JSON or YAML.
func printStructured(w io.Writer, v any, format int) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("failed writing json: %w", err)
		}
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("failed writing yaml: %w", err)
		}

		return enc.Close()
	default:
		return errUnknownFormat
	}

	return nil
}

func sortEntries(entries []hydrogen.VMEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Hostname == entries[j].Hostname {
			return entries[i].UUID < entries[j].UUID
		}

		return entries[i].Hostname < entries[j].Hostname
	})
}

func renderVMs(w io.Writer, entries []hydrogen.VMEntry, format int) error {
	if entries == nil {
		entries = []hydrogen.VMEntry{}
	}

	sortEntries(entries)

	if format != TXT {
		return printStructured(w, entries, format)
	}

	vmTableWriter := table.NewWriter()
	vmTableWriter.SetOutputMirror(w)
	vmTableWriter.SetStyle(myTableStyle)
	vmTableWriter.AppendHeader(table.Row{"HOSTNAME", "UUID", "OS", "IPV4", "IPV6", "HOST", "STATE", "LAST SEEN"})

	for _, entry := range entries {
		vmTableWriter.AppendRow(table.Row{
			entry.Hostname,
			entry.UUID,
			entry.OS,
			entry.IPv4,
			entry.IPv6,
			entry.Host,
			stateString(entry.Online),
			lastSeenString(entry.LastSeen),
		})
	}

	vmTableWriter.Render()

	return nil
}

func renderVM(w io.Writer, entry hydrogen.VMEntry, format int) error {
	if format != TXT {
		return printStructured(w, entry, format)
	}

	_, err := fmt.Fprintf(w,
		"hostname: %s\nuuid: %s\nos: %s\nipv4: %s\nipv6: %s\nhost: %s\nstate: %s\nlast seen: %s\n",
		entry.Hostname,
		entry.UUID,
		entry.OS,
		entry.IPv4,
		entry.IPv6,
		entry.Host,
		stateString(entry.Online),
		lastSeenString(entry.LastSeen),
	)

	return err
}

func renderHostInfo(w io.Writer, info hydrogen.HostInfo, format int) error {
	if format != TXT {
		return printStructured(w, info, format)
	}

	_, err := fmt.Fprintf(w, "host: %s\nlibvirt version: %s\nVMs defined: %d\nVMs online: %d\n",
		info.Host, info.LibvirtVersion, info.VMsDefined, info.VMsOnline)

	return err
}
