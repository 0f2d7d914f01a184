package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/core"
)

var (
	verifyNodes        int64
	verifyContains     int64
	verifyRootName     string
	verifyRootChildren int64
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-count the store and compare against expected totals",
	Long: `Verify issues independent count queries for nodes, containment edges,
each configured edge type and the root node's direct children, then
reports whether the load is complete. Expected values come from the
config file; flags override individual ones.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Int64Var(&verifyNodes, "nodes", 0, "expected node count (overrides config)")
	verifyCmd.Flags().Int64Var(&verifyContains, "contains", 0, "expected containment edge count (overrides config)")
	verifyCmd.Flags().StringVar(&verifyRootName, "root-name", "", "name of the structural root node (overrides config)")
	verifyCmd.Flags().Int64Var(&verifyRootChildren, "root-children", 0, "expected direct children of the root (overrides config)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	d, err := connect()
	if err != nil {
		return err
	}
	defer d.Close(cmd.Context())

	expected := cfg.Verify.Expected()
	if cmd.Flags().Changed("nodes") {
		expected.Nodes = verifyNodes
	}
	if cmd.Flags().Changed("contains") {
		expected.Contains = verifyContains
	}
	if verifyRootName != "" {
		expected.RootName = verifyRootName
	}
	if cmd.Flags().Changed("root-children") {
		expected.RootChildren = verifyRootChildren
	}

	stats, err := core.NewVerifier(d).Verify(cmd.Context(), expected)
	if err != nil {
		return err
	}

	printJSON(cmd, stats)
	if !stats.Complete {
		return fmt.Errorf("verification incomplete")
	}
	return nil
}
