package main

import (
	"bufio"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/capturcus/mmachine/pkg/isa"
	"github.com/capturcus/mmachine/pkg/machine"
)

func main() {
	var stepMode bool
	var debugMode bool
	var trace bool

	rootCmd := &cobra.Command{
		Use:           "mmachine <binary-file>",
		Short:         "Run a binary on the 16-bit bus machine simulator",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trace {
				log.SetLevel(log.DebugLevel)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			program, err := machine.ReadProgram(f)
			f.Close()
			if err != nil {
				return err
			}

			cfg := machine.Config{Program: program}
			if debugMode {
				return runDebug(cfg)
			}
			if stepMode {
				scanner := bufio.NewScanner(os.Stdin)
				cfg.OnStep = func(m *machine.Machine) {
					printState(m)
					if !scanner.Scan() {
						log.Fatal("stdin closed in step mode")
					}
				}
			}
			return machine.New(cfg).Run()
		},
	}
	rootCmd.Flags().BoolVarP(&stepMode, "step", "s", false, "pause after every microstep, continue on newline")
	rootCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "interactive machine inspector")
	rootCmd.Flags().BoolVarP(&trace, "trace", "t", false, "log every microstep")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printState(m *machine.Machine) {
	for r := isa.Reg(0); r < isa.NumRegisters; r++ {
		fmt.Printf("%s=%d ", r.Name(), m.Register(r))
	}
	fmt.Printf("| mar=%d mdr=%d | eq=%v gt=%v | %s | next: %s\n",
		m.MAR(), m.MDR(),
		m.Flags().Equal(), m.Flags().Greater(),
		m.CableDump(), isa.Disassemble(m.IR()))
}
