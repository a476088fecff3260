// Package cli provides the functions to parse the non-standard CLI flags.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.creack.net/casm/vm"
)

// Program is a parsed command line: the source file plus the optional
// state seeds applied before the run.
type Program struct {
	PathName string
	Lines    []string

	RegisterSeeds map[int]int    // -r N=V
	MemorySeeds   map[int]string // -m ADDR=V, byte address.
	StorageSeeds  map[int]string // -s ADDR=V, byte address.
}

func splitSeed(arg string) (string, string, error) {
	k, v, ok := strings.Cut(arg, "=")
	if !ok || k == "" || v == "" {
		return "", "", fmt.Errorf("invalid seed %q, expected KEY=VALUE", arg)
	}
	return k, v, nil
}

func parse(args []string) (*Program, error) {
	prog := &Program{
		RegisterSeeds: map[int]int{},
		MemorySeeds:   map[int]string{},
		StorageSeeds:  map[int]string{},
	}

	// Process arguments manually.
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-r", "-m", "-s":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for %s flag", arg)
			}
			k, v, err := splitSeed(args[i+1])
			if err != nil {
				return nil, err
			}
			i++ // Skip the value.
			switch arg {
			case "-r":
				n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(k), "R"))
				if err != nil {
					return nil, fmt.Errorf("invalid register %q for -r flag", k)
				}
				value, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("invalid value %q for -r flag", v)
				}
				prog.RegisterSeeds[n] = value
			case "-m":
				addr, err := strconv.Atoi(k)
				if err != nil {
					return nil, fmt.Errorf("invalid address %q for -m flag", k)
				}
				prog.MemorySeeds[addr] = v
			case "-s":
				addr, err := strconv.Atoi(k)
				if err != nil {
					return nil, fmt.Errorf("invalid address %q for -s flag", k)
				}
				prog.StorageSeeds[addr] = v
			}
			continue
		}

		// If it's not a flag, it's the program file.
		if len(arg) > 0 && arg[0] != '-' {
			if prog.PathName != "" {
				return nil, fmt.Errorf("multiple program files: %q and %q", prog.PathName, arg)
			}
			prog.PathName = arg
			continue
		}
		return nil, fmt.Errorf("unknown flag %q", arg)
	}
	if prog.PathName == "" {
		return nil, fmt.Errorf("no program file provided")
	}
	if !strings.HasSuffix(prog.PathName, ".casm") {
		return nil, fmt.Errorf("invalid file extension for %q, must be .casm", prog.PathName)
	}
	return prog, nil
}

func loadProgram(prog *Program) error {
	data, err := os.ReadFile(prog.PathName)
	if err != nil {
		return fmt.Errorf("failed to read file %q: %w", prog.PathName, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	prog.Lines = lines
	return nil
}

// ParseConfig parses os.Args and loads the program file.
func ParseConfig() (vm.Config, *Program, error) {
	prog, err := parse(os.Args[1:])
	if err != nil {
		return vm.Config{}, nil, fmt.Errorf("parse: %w", err)
	}
	if err := loadProgram(prog); err != nil {
		return vm.Config{}, nil, fmt.Errorf("load program: %w", err)
	}
	return vm.DefaultConfig(), prog, nil
}

// Apply seeds registers, memory and storage on a freshly loaded machine.
func (prog *Program) Apply(m *vm.Machine) error {
	for n, value := range prog.RegisterSeeds {
		if err := m.SetRegister(n, value); err != nil {
			return fmt.Errorf("seed register R%d: %w", n, err)
		}
	}
	for addr, value := range prog.MemorySeeds {
		if err := m.PokeMemory(addr, value); err != nil {
			return fmt.Errorf("seed memory %d: %w", addr, err)
		}
	}
	for addr, value := range prog.StorageSeeds {
		if err := m.PokeStorage(addr, value); err != nil {
			return fmt.Errorf("seed storage %d: %w", addr, err)
		}
	}
	return nil
}
