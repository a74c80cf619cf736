package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nao1215/linkmatch/internal/config"
	"github.com/nao1215/linkmatch/internal/database"
)

// defaultHistoryLimit is the number of extractions listed per source.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "List recorded extractions",
		Long: `History shows what the extract command recorded in the history database.

Without a source it lists every file and URL that has been extracted.
With a source it lists the extractions of that source, newest first.

Examples:
  # List all recorded sources
  linkmatch history

  # Show the last 5 extractions of a page
  linkmatch history -n 5 http://example.com/

  # Remove extractions older than 30 days
  linkmatch history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of extractions listed (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	cmd.Flags().Duration("prune", 0,
		"Delete extractions older than this duration and exit")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	prune, err := cmd.Flags().GetDuration("prune")
	if err != nil {
		return err
	}
	if prune < 0 {
		return fmt.Errorf("invalid --prune %s: must be positive", prune)
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if prune > 0 {
		cutoff := time.Now().Add(-prune)
		n, err := db.DeleteBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d extractions recorded before %s\n", n, cutoff.Format(time.DateTime))
		return nil
	}

	if len(args) == 0 {
		sources, err := db.ListSources(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}
		if jsonOutput {
			return writeJSON(out, sources)
		}
		return printSources(out, sources)
	}

	records, err := db.ListExtractions(ctx, args[0], limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, records)
	}
	return printRecords(out, args[0], records)
}

// openHistoryDB opens the database named by --db-dir or the XDG default.
func openHistoryDB(cmd *cobra.Command) (*database.HistoryDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func printSources(out io.Writer, sources []string) error {
	if len(sources) == 0 {
		fmt.Fprintln(out, "No extractions recorded yet.")
		fmt.Fprintln(out, "\nUse 'linkmatch extract <file|url>' to extract links.")
		return nil
	}

	fmt.Fprintf(out, "Recorded sources (%d):\n\n", len(sources))
	for _, s := range sources {
		fmt.Fprintf(out, "  %s\n", s)
	}
	fmt.Fprintln(out, "\nUse 'linkmatch history <source>' to list its extractions.")
	return nil
}

func printRecords(out io.Writer, source string, records []database.Record) error {
	if len(records) == 0 {
		fmt.Fprintf(out, "No extractions recorded for %s\n", source)
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d extractions):\n\n", source, len(records))

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		detail := "-"
		if r.Error != "" {
			detail = fmt.Sprintf("%s: %s", r.Failure, r.Error)
		}
		code := "-"
		if r.StatusCode != 0 {
			code = strconv.Itoa(r.StatusCode)
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.ExtractedAt.Local().Format(time.DateTime),
			string(r.Status),
			strconv.Itoa(r.LinkCount),
			code,
			detail,
		})
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Extracted", "Status", "Links", "HTTP", "Detail")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nUse 'linkmatch compare <source>' to diff the two latest successful extractions.")
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
