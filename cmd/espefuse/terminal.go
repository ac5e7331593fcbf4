package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/moffa90/go-espefuse/efuse"
)

// errNotInteractive is returned when confirmation is needed but stdin is not
// a terminal.
var errNotInteractive = errors.New("stdin is not a terminal, use --do-not-confirm to burn without confirmation")

// confirmer asks the user to type BURN before anything is burned.
func confirmer(in io.Reader, out io.Writer) efuse.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(_ context.Context, prompt string) (bool, error) {
		if f, ok := in.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false, errNotInteractive
		}
		fmt.Fprintf(out, "%s\nType 'BURN' (all capitals) to continue.\n", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return strings.TrimSpace(line) == "BURN", nil
	}
}

// termWidth returns the width of out when it is a terminal, 0 otherwise.
func termWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}
