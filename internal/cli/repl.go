package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

type execIface interface {
	Exec(ctx context.Context, args []string) error
}

// runREPL reads one command per line from reader and hands it to a. It
// returns on end of input or when the user types "exit" or "quit". Command
// errors are reported and do not end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("carddav %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		parts, perr := splitLine(line)
		if perr != nil {
			printlnFn("error:", perr)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			printlnFn(usage())
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			if err := a.Exec(ctx, parts); err != nil {
				printlnFn("error:", err)
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// splitLine splits a command line into words. Double quotes group words
// containing spaces, as in: setabook 42 "name=%a (%N)".
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inQuote bool
		inWord  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			inWord = true
		case unicode.IsSpace(r) && !inQuote:
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
