package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkmatch/internal/config"
	"github.com/nao1215/linkmatch/internal/model"
	"github.com/nao1215/linkmatch/internal/report"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <source>",
		Short: "Compare the links of two recorded extractions",
		Long: `Compare shows which links were added or removed between two successful
extractions of the same source.

By default the two latest successful extractions are compared. Use
--with-id to compare the latest one against an older extraction listed by
'linkmatch history <source>'.

Examples:
  # Compare the latest two extractions of a page
  linkmatch compare http://example.com/

  # Compare against extraction 12
  linkmatch compare -i 12 http://example.com/

  # Output the comparison as Markdown
  linkmatch compare -m -o diff.md http://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare the latest extraction with the extraction of this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")
	cmd.Flags().StringP("output", "o", "",
		"Write comparison to specified file path")
	cmd.Flags().BoolP("links-only", "l", false,
		"Print only changed links as +link / -link")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) (err error) {
	source := args[0]

	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.LinksOnly, err = cmd.Flags().GetBool("links-only"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	want := 2
	if withID > 0 {
		want = 1
	}
	latest, err := db.LatestSuccessful(ctx, source, want)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(latest) < want {
		return fmt.Errorf("at least %d successful extractions of %s are required for comparison (found %d)",
			want, source, len(latest))
	}

	newer := latest[0]
	var older *model.Extraction
	if withID > 0 {
		older, err = db.GetExtraction(ctx, withID)
		if err != nil {
			return err
		}
		if older.Source != source {
			return fmt.Errorf("extraction %d belongs to %s, not %s", withID, older.Source, source)
		}
		if !older.Succeeded() {
			return fmt.Errorf("extraction %d of %s failed (%s) and has no links to compare",
				withID, source, older.Failure)
		}
	} else {
		older = latest[1]
	}

	w, closeReport, err := newReportWriter(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeReport(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	if _, err := w.WriteComparison(report.NewComparison(source, older, newer)); err != nil {
		return fmt.Errorf("failed to write comparison: %w", err)
	}
	return nil
}
