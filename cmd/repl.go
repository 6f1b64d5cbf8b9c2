package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/toolbridge/toolbridge/internal/shared/cmdutils"
)

// askFunc answers one query.
type askFunc func(ctx context.Context, query string) (string, error)

// maxQueryBytes bounds a single query line.
const maxQueryBytes = 1 << 20

// runREPL reads queries from in until EOF or "quit". Errors and panics from
// ask are printed and the loop continues.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, ask askFunc) error {
	fmt.Fprintln(out, "Interactive mode (type 'quit' to exit)")

	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(out, "\nYou: ")

		raw, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}

		line := strings.TrimSpace(raw)
		switch {
		case line == "":
		case strings.EqualFold(line, "quit"):
			return nil
		case len(line) > maxQueryBytes:
			cmdutils.PrintError(out, fmt.Errorf("query too long: %d bytes, limit is %d", len(line), maxQueryBytes))
		default:
			answer, err := askSafely(ctx, ask, line)
			if err != nil {
				cmdutils.PrintError(out, err)
			} else {
				cmdutils.PrintResponse(out, answer)
			}
		}

		if readErr == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
	}
}

func askSafely(ctx context.Context, ask askFunc, query string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ask(ctx, query)
}
