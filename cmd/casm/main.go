// Command casm runs a program to completion and prints the final
// register file, without any visualization.
package main

import (
	"fmt"
	"log"
	"os"

	"go.creack.net/casm/cli"
	"go.creack.net/casm/vm"
)

func run() error {
	cfg, prog, err := cli.ParseConfig()
	if err != nil {
		return fmt.Errorf("parse cli config: %w", err)
	}

	m := vm.New(cfg)
	if err := m.Load(prog.Lines); err != nil {
		return fmt.Errorf("load %q: %w", prog.PathName, err)
	}
	if err := prog.Apply(m); err != nil {
		return fmt.Errorf("apply seeds: %w", err)
	}

	if err := m.Run(); err != nil {
		fmt.Println(m.ErrorReport())
	}
	m.DumpRegisters(os.Stdout)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fail: %s.", err)
	}
}
