package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/core"
	"github.com/gantrylabs/gantry/internal/core/model"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Idempotently merge an exported payload into the store",
	Long: `Import merges a payload of GUID-keyed nodes and relationships. Every
record is merged on its GUID, so re-running the same payload changes
nothing. The whole payload is validated before the first write; with
--dry-run validation is all that happens.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate the payload and report counts without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	payload, err := readImportPayload(args[0])
	if err != nil {
		return err
	}

	if importDryRun {
		if err := (&core.Importer{}).ValidatePayload(payload); err != nil {
			return err
		}
		printJSON(cmd, &model.ImportStats{
			Nodes:  int64(len(payload.Nodes)),
			Edges:  int64(len(payload.Edges)),
			DryRun: true,
		})
		return nil
	}

	d, err := connect()
	if err != nil {
		return err
	}
	defer d.Close(cmd.Context())

	stats, err := core.NewImporter(d).ImportAll(cmd.Context(), payload)
	if stats != nil {
		printJSON(cmd, stats)
	}
	return err
}

func readImportPayload(path string) (*model.ImportPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import payload '%s': %w", path, err)
	}

	var payload model.ImportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse import payload: %w", err)
	}
	return &payload, nil
}
