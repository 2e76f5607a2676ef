package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
)

var capabilityFile string

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Print the effective role capability table",
	Long: `Print which roles may perform each action on each record kind.

Overrides come from --file, or CAPABILITY_TABLE_FILE when the flag is omitted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := capabilityFile
		if path == "" {
			path = cfg.CapabilityTableFile
		}
		table := policy.DefaultCapabilityTable()
		if path != "" {
			var err error
			if table, err = policy.LoadCapabilityOverrides(path, table); err != nil {
				return err
			}
		}
		return printCapabilities(os.Stdout, table)
	},
}

func init() {
	capabilitiesCmd.Flags().StringVarP(&capabilityFile, "file", "f", "", "YAML capability overrides")
}

func printCapabilities(out io.Writer, table *policy.CapabilityTable) error {
	kindFmt := color.New(color.FgCyan, color.Bold).SprintFunc()
	yes := color.New(color.FgGreen).Sprint("yes")
	no := color.New(color.FgRed).Sprint("no")

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"KIND", "ACTION"}
	for _, r := range domain.Roles {
		header = append(header, string(r))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, c := range table.Entries() {
		row := []string{kindFmt(string(c.Kind)), string(c.Action)}
		for _, r := range domain.Roles {
			if hasRole(c.Roles, r) {
				row = append(row, yes)
			} else {
				row = append(row, no)
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func hasRole(rs []domain.Role, r domain.Role) bool {
	for _, v := range rs {
		if v == r {
			return true
		}
	}
	return false
}
