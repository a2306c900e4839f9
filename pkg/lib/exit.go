package lib

import (
	"errors"
	"fmt"
	"os"
)

// ExitCoder is implemented by errors that select their own process exit code.
type ExitCoder interface {
	ExitCode() int
}

// Code returns the exit code carried by err, or 1.
func Code(err error) int {
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

// Exit prints the error and exits the program with the error's exit code.
// render, when non-nil, formats the message before printing.
func Exit(err error, render func(string) string) {
	msg := "Error: " + err.Error()
	if render != nil {
		msg = render(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(Code(err))
}
