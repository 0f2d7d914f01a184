package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/core"
	"github.com/gantrylabs/gantry/internal/core/model"
)

var (
	loadClear  bool
	loadSource string
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Bulk load an analyzer tree into the store",
	Long: `Load flattens the hierarchical JSON produced by the codebase analyzer
and creates its nodes, containment edges and typed edges in batches. The
store must be empty of previously loaded nodes unless --clear is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadClear, "clear", false, "detach-delete previously loaded nodes first")
	loadCmd.Flags().StringVar(&loadSource, "source", "", "source descriptor stamped on loaded nodes (overrides config)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	input, err := readLoadInput(args[0])
	if err != nil {
		return err
	}

	d, err := connect()
	if err != nil {
		return err
	}
	defer d.Close(cmd.Context())

	l := core.NewLoader(d)
	if cfg.Load.NodeBatchSize > 0 {
		l.NodeBatchSize = cfg.Load.NodeBatchSize
	}
	if cfg.Load.EdgeBatchSize > 0 {
		l.EdgeBatchSize = cfg.Load.EdgeBatchSize
	}
	if cfg.Load.Source != "" {
		l.Source = cfg.Load.Source
	}
	if loadSource != "" {
		l.Source = loadSource
	}

	summary, err := l.Run(cmd.Context(), input, core.RunOptions{Clear: loadClear})
	if summary != nil {
		printJSON(cmd, summary)
	}
	return err
}

func readLoadInput(path string) (*model.LoadInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read load input '%s': %w", path, err)
	}

	var input model.LoadInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse load input: %w", err)
	}
	return &input, nil
}
