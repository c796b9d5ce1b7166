// Package terminal provides ANSI helpers for the interactive commands.
package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is assumed when stdout is not a terminal.
const DefaultWidth = 80

// Width returns the width of stdout, or DefaultWidth.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return DefaultWidth
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ClearScreen erases the screen and moves the cursor home.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[H\x1b[2J")
}

// ClearPreviousLines erases textLength characters of prompt and input that were
// echoed before the user pressed Enter, wrapping at width columns.
//
// The cursor sits on the empty line below the input, so one extra line is
// cleared.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	if width <= 0 {
		width = DefaultWidth
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		lines = 1
	}

	n := lines + 1
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
