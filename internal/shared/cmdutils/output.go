package cmdutils

import (
	"fmt"
	"io"
)

// PrintResponse writes a model answer preceded by a blank line. Empty
// answers print nothing.
func PrintResponse(w io.Writer, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(w, "\n%s\n", text)
}

// PrintError writes err in the REPL's "Error: ..." form.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "\nError: %v\n", err)
}
