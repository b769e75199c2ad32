package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Vishal2827/pern-stack/internal/perimeter"

	"github.com/spf13/cobra"
)

// newSignaturesCommand writes the built-in bot signatures as a gzipped list,
// ready to be edited and pointed at by BOT_SIGNATURE_FILES or uploaded to S3.
func newSignaturesCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "Export the built-in bot signature list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer file.Close()

			if err := perimeter.WriteSignatures(file, perimeter.DefaultSignatures); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d signatures\n", out, len(perimeter.DefaultSignatures))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "data/perimeter/signatures.gz", "output file")
	return cmd
}
