// Command x86emu loads a static ELF64 binary or a Linux bzImage and
// runs it on the emulated x86-64 machine.
//
// Grounded on oisee-z80-optimizer's cmd/z80opt/main.go: a single
// cobra.Command with RunE and a handful of flags, rather
// than the teacher's own GUI-driven entry point (cpu_x86_runner.go),
// which has no analogue in a headless batch tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"x86emu/internal/driver"
	"x86emu/internal/loader"
	"x86emu/internal/machine"
)

func main() {
	var loaderKind string
	var symbol string
	var debug bool
	var benchmark bool
	var printInstructions bool
	var dumpStatePath string
	var vgaToStdout bool

	rootCmd := &cobra.Command{
		Use:   "x86emu <file>",
		Short: "A minimal x86-64 instruction-set emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			state := machine.New()
			state.Stdout = os.Stdout
			state.Stderr = os.Stderr
			state.PrintRegisters = debug
			state.PrintInstructions = printInstructions
			if vgaToStdout {
				state.VGA = os.Stdout
			}

			var entry uint64
			var err error
			switch loaderKind {
			case "elf":
				entry, err = loader.LoadELF(path, state, symbol)
			case "linux":
				entry, err = loader.LoadLinux(path, state)
			default:
				return fmt.Errorf("unknown loader %q: want elf or linux", loaderKind)
			}
			if err != nil {
				return err
			}
			state.RIP = entry

			result, runErr := driver.Run(state, driver.Options{
				Debug:             debug,
				PrintInstructions: printInstructions,
				Benchmark:         benchmark,
			})

			if dumpStatePath != "" {
				if dumpErr := dumpState(state, dumpStatePath); dumpErr != nil {
					fmt.Fprintf(os.Stderr, "x86emu: %v\n", dumpErr)
				}
			}

			if runErr != nil {
				fmt.Fprintf(os.Stderr, "x86emu: %v\n", runErr)
				os.Exit(1)
			}

			if benchmark {
				ips := float64(result.InstructionCount) / result.Elapsed.Seconds()
				fmt.Fprintf(os.Stderr, "x86emu: %d instructions in %s (%.0f instr/s)\n",
					result.InstructionCount, result.Elapsed, ips)
			}

			os.Exit(result.ExitCode)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&loaderKind, "loader", "l", "elf", "Loader to use: elf or linux")
	rootCmd.Flags().StringVarP(&symbol, "symbol", "s", "main", "Entry symbol to resolve (ELF loader only)")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Print register state after every instruction")
	rootCmd.Flags().BoolVarP(&benchmark, "benchmark", "b", false, "Print throughput after the run completes")
	rootCmd.Flags().BoolVarP(&printInstructions, "print-instructions", "p", false, "Trace each decoded instruction")
	rootCmd.Flags().StringVar(&dumpStatePath, "dump-state", "", "Write a gob-encoded machine state snapshot to this path at halt")
	rootCmd.Flags().BoolVar(&vgaToStdout, "vga-stdout", false, "Mirror the emulated VGA text buffer's byte stream to stdout")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dumpState writes a crash-dump-style snapshot of state to path,
// for later replay with machine.State.Restore.
func dumpState(state *machine.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dumping state: %w", err)
	}
	defer f.Close()
	if err := state.Dump(f); err != nil {
		return fmt.Errorf("dumping state: %w", err)
	}
	return nil
}
