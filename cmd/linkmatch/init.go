package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkmatch/internal/config"
)

//go:embed templates/linkmatch.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a linkmatch configuration file",
		Long: `Init writes a commented .linkmatch configuration file.

The generated file lists every setting with its default value and shows
how to override fetch settings for a single host.

Examples:
  # Create .linkmatch in the current directory
  linkmatch init

  # Create the per-user file in the XDG config directory
  linkmatch init --xdg

  # Overwrite an existing file
  linkmatch init -f -o myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().Bool("xdg", false,
		"Write to the XDG config directory instead of --output")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	if useXDG {
		outputPath = config.XDGConfigFile()
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/linkmatch.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit the defaults section, or add a hosts entry to change the port,")
	fmt.Fprintln(out, "boundary mode or User-Agent used for a single host.")

	return nil
}
