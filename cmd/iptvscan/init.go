package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/iptvscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/iptvscan.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new iptvscan configuration file",
		Long: `Initialize creates a new .iptvscan configuration file in the current directory.

The generated file includes:
- The default playlist source
- Probe concurrency, timeout and request settings
- Export formats and output directory

Examples:
  # Create .iptvscan in current directory
  iptvscan init

  # Create config file at a specific path
  iptvscan init -o ~/.config/iptvscan/config.yaml

  # Force overwrite existing file
  iptvscan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/iptvscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to change:")
	fmt.Fprintln(out, "  - The playlist source")
	fmt.Fprintln(out, "  - Probe concurrency and timeout")
	fmt.Fprintln(out, "  - Export formats and directory")
	fmt.Fprintf(out, "\nTo use it everywhere, move it to %s\n",
		filepath.Join(config.XDGConfigDir(), "config.yaml"))

	return nil
}
