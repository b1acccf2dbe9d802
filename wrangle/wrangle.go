// Command wrangle generates the x86 instruction tables from the embedded
// catalog.
//
// Usage:
//
//	wrangle [outdir]
//
// The group tables and the GAS and NASM gperf inputs are written to
// outdir, or to the current directory when it is omitted.
package main

import (
	"log"

	"github.com/spf13/cobra"

	x86meta "github.com/apparentlymart/x86-meta"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("wrangle: ")

	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wrangle [outdir]",
		Short:         "Generate x86 instruction tables",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return run(dir)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

func run(dir string) error {
	c, err := x86meta.Generate(x86meta.Config{OutDir: dir})
	if err != nil {
		return err
	}

	for _, name := range c.UnusedGroups() {
		log.Printf("warning: group %s is not used by any instruction", name)
	}
	return nil
}
