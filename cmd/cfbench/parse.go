package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/tools"
)

func newParseCmd(a *app) *cobra.Command {
	var asJSON, pretty bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Show how a document is segmented and assembled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			conv := notebook.Parse(string(data))
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(conv)
			}
			return render(a.out, tools.Outline(filepath.Base(args[0]), conv), pretty)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the assembled conversation as JSON")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render the outline for the terminal")
	return cmd
}
