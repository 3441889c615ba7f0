package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// statusLine formats one check result, coloring the status tag when the
// writer is a terminal.
func statusLine(label, status, message string, colorize bool) string {
	tag := "[" + status + "]"
	if colorize {
		switch status {
		case "pass", "OK":
			tag = ansiGreen + tag + ansiReset
		case "warn", "WARN":
			tag = ansiYellow + tag + ansiReset
		case "fail", "ERROR":
			tag = ansiRed + tag + ansiReset
		}
	}
	return fmt.Sprintf("  %-24s %s %s", label+":", tag, message)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
