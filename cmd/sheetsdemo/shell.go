package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type actions interface {
	SignIn()
	SignOut()
	Read()
	Write()
	Status() string
}

const shellHelp = "Commands: signin, signout, read, write, status, help, quit"

// runShell dispatches one action per input line until quit, end of input or
// ctx is done. Actions run in the background; the prompt returns at once.
func runShell(ctx context.Context, a actions, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	fmt.Fprintln(out, shellHelp)

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
			case "":
			case "signin", "sign-in":
				a.SignIn()
			case "signout", "sign-out":
				a.SignOut()
			case "read":
				a.Read()
			case "write":
				a.Write()
			case "status":
				fmt.Fprintln(out, a.Status())
			case "help", "?":
				fmt.Fprintln(out, shellHelp)
			case "quit", "exit":
				return nil
			default:
				fmt.Fprintf(out, "Unknown command %q\n", cmd)
			}
		}
	}
}
