// Package cli provides the command-line interface for certfetch.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (will be set by build flags in production).
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "certfetch",
	Short: "Download and pin-verify cloud database CA bundles",
	Long: `certfetch downloads the certificate-authority trust bundles needed to
talk TLS to managed cloud databases (AWS RDS, Azure Database, Google
Cloud SQL), verifies each download against a pinned SHA-256 digest,
and writes verified bundles into a local directory (default ./certs).

Bundles that fail to download or do not match their pin are skipped;
nothing unverified is left on disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("certfetch version %s\n", Version)
		fmt.Printf("  commit: %s\n", GitCommit)
		fmt.Printf("  built:  %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and handles errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
