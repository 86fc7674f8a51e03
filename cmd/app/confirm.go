package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var errNotConfirmed = errors.New("aborted")

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"}
}

// isTerminal reports whether stdin is interactive. Tests replace it.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// confirm asks before a destructive change. Without --yes it refuses to
// proceed when stdin is not a terminal.
func confirm(cmd *cli.Command, in io.Reader, prompt string) error {
	if cmd.Bool("yes") {
		return nil
	}
	if !isTerminal() {
		return fmt.Errorf("%s: refusing without --yes on a non-interactive input", prompt)
	}
	fmt.Fprintf(out(cmd), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return errNotConfirmed
}
