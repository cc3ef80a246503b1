package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// progressWriter returns w when it is an interactive terminal, the only
// place a byte progress bar can render. Piped and captured output gets nil.
func progressWriter(w io.Writer) io.Writer {
	if isTerminal(w) {
		return w
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
