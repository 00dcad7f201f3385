package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	LoadManifest(ctx context.Context) error
	ReloadManifest(ctx context.Context) error
	Search(ctx context.Context, query string) error
	PromptQuery() (string, error)
	Stats(ctx context.Context) error
	ClearCache(ctx context.Context) error
}

func (a *App) getStatus() string {
	if !a.unlocked {
		return "(locked)"
	}
	if !a.loaded {
		return "(no manifest)"
	}
	return ""
}

func (a *App) Root(ctx context.Context) {
	printlnFn("appealvault archive (type 'help' for commands)")

	for {
		fmt.Printf("av %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return
		}
		if !dispatch(ctx, a, line) {
			return
		}
		if err != nil {
			return
		}
	}
}

// dispatch runs one REPL line against the command surface. Returns false
// when the user asked to exit. Handler errors are reported but never stop
// the loop.
func dispatch(ctx context.Context, a execIface, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := parts[0]
	args := parts[1:]

	var err error
	switch cmd {
	case "help":
		if a.isUnlocked() {
			printlnFn("Available commands: (s)earch <query>, stats, clear, reload, exit")
		} else {
			printlnFn("Available commands: unlock, exit")
		}

	case "unlock":
		err = a.Unlock(ctx)

	case "load":
		err = a.LoadManifest(ctx)

	case "reload":
		err = a.ReloadManifest(ctx)

	case "s", "search":
		query := strings.Join(args, " ")
		if query == "" {
			query, err = a.PromptQuery()
			if err != nil {
				break
			}
			if query == "" {
				printlnFn("Usage: search <query>")
				return true
			}
		}
		err = a.Search(ctx, query)

	case "stats":
		err = a.Stats(ctx)

	case "clear":
		err = a.ClearCache(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return false

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		printlnFn("Error:", err.Error())
	}
	return true
}
