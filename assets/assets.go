// Package assets embeds sample casm programs used as viewer demos and
// in integration tests.
package assets

import (
	_ "embed"
	"strings"
)

//go:embed countdown.casm
var countdownSrc string

//go:embed storage.casm
var storageSrc string

// Countdown is the classic count-to-ten loop.
func Countdown() []string { return lines(countdownSrc) }

// Storage round-trips a value through memory and storage.
func Storage() []string { return lines(storageSrc) }

func lines(src string) []string {
	return strings.Split(strings.TrimRight(src, "\n"), "\n")
}
