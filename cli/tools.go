package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/findata-labs/finmcp/fintools"
)

// NewToolsCmd creates the "tools" subcommand.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalog",
		RunE:  runTools,
	}
	cmd.Flags().Bool("json", false, "Emit the catalog as JSON")
	return cmd
}

type toolListing struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

func runTools(cmd *cobra.Command, _ []string) error {
	specs, err := fintools.Specs()
	if err != nil {
		return exitError(exitRuntime, "building tool catalog: %v", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		listings := make([]toolListing, 0, len(specs))
		for _, spec := range specs {
			listings = append(listings, toolListing{
				Name:        spec.Name,
				Description: spec.Description,
				InputSchema: spec.InputSchema(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARAMS\tDESCRIPTION")
	for _, spec := range specs {
		fmt.Fprintf(w, "%s\t%d\t%s\n", spec.Name, len(spec.Params), spec.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d tools\n", len(specs))
	return nil
}
