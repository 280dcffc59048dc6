package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/capturcus/mmachine/pkg/asm"
)

func main() {
	var output string

	rootCmd := &cobra.Command{
		Use:           "asm <source-file>",
		Short:         "Assemble mmachine source into a binary",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			words, err := asm.Assemble(string(source))
			if err != nil {
				return err
			}
			return os.WriteFile(output, asm.ToBytes(words), 0o644)
		},
	}
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "the output binary file")
	rootCmd.MarkFlagRequired("output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
