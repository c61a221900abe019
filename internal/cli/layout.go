package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/insetkit/pkg/scenario"
	"github.com/matzehuels/insetkit/pkg/sink"
)

// layoutCommand creates the layout command for replaying a scenario.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		formats string
		mode    string
		table   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [scenario.yaml]",
		Short: "Replay a scenario and write the final inset layout",
		Long: `Replay a scenario and write the final inset layout.

The layout command feeds every frame of a scenario file to the inset
coordinator and writes the snapshot of the last pass. SVG output shows the
canvas, every annotation and each inset with a leader line to its origin;
JSON output lists the placements for other tools.

Engine settings come from the config file; --mode overrides the positioning
mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, formats, mode, table)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <input> without extension)")
	cmd.Flags().StringVarP(&formats, "format", "f", sink.FormatSVG, "output formats: svg, json (comma separated)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "positioning mode: center, gallery (default: from config)")
	cmd.Flags().BoolVar(&table, "table", true, "print the placement table")

	return cmd
}

// runLayout replays the scenario at input and writes one file per format.
func (c *CLI) runLayout(ctx context.Context, input, output, formatList, mode string, showTable bool) error {
	formats, err := sink.ParseFormats(formatList)
	if err != nil {
		return err
	}
	s, err := scenario.Load(input)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", input, err)
	}
	opts, err := c.options(mode)
	if err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(ctx))
	res, err := scenario.Replay(ctx, s, opts)
	if err != nil {
		return fmt.Errorf("replay %s: %w", input, err)
	}
	prog.done(fmt.Sprintf("Replayed %d frames", len(res.Steps)))

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	var paths []string
	for _, f := range formats {
		data, err := sink.Render(res.Final, f)
		if err != nil {
			return err
		}
		path := sink.Filename(base, f)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	fmt.Println(snapshotStats(res.Final))
	if res.Failed > 0 {
		printWarning("%d inset draws failed", res.Failed)
	}
	if showTable && len(res.Final.Placements) > 0 {
		fmt.Println(placementTable(res.Final.Placements, failedIDs(s)))
	}
	printNewline()
	printNextStep("Step through frames", appName+" preview "+input)

	return nil
}

func failedIDs(s *scenario.Scenario) map[string]bool {
	out := make(map[string]bool, len(s.Fail))
	for _, id := range s.Fail {
		out[id] = true
	}
	return out
}
