// Command tsdffusiond wires config -> fusion.Pipeline -> monitor server,
// plus a bench subcommand that runs a synthetic scenario and prints the
// resulting counts, grounded on the teacher's cmd/ entry point and
// cobra's command-tree pattern as used elsewhere in the retrieved corpus
// (e.g. dittofs' cmd/dittofs/commands).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "tsdffusiond",
	Short: "TSDF volumetric fusion core driver",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (defaults to built-in scenario defaults)")
	rootCmd.AddCommand(serveCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
