package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/mediakeeper/internal/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Status(ctx context.Context) error
	SetMode(ctx context.Context, online bool) error
	Write(ctx context.Context, op models.Operation, entityType, body string) error
	List(ctx context.Context, entityType string) error
	Pending(ctx context.Context) error
	Sync(ctx context.Context) error
	Last(ctx context.Context) error
}

const helpText = `Available commands:
  status                      network state and pending change count
  online | offline            override the network determination
  add <type> [json]           create a record (json read from input when omitted)
  update <type> [json]        replace a record, json must carry "id"
  delete <type> <id>          delete a record
  list <type>                 show records, from the cache when offline
  pending                     show queued changes
  sync                        replay queued changes now
  last                        result of the last sync
  exit | quit                 leave the program`

// runREPL starts a simple read–eval–print loop for the MediaKeeper CLI.
//
// It reads a line from r, takes the first token as the command and
// dispatches to methods on a. The entity type is the second token and
// everything after it is passed through untouched, so JSON bodies may
// contain spaces. The loop exits on EOF or when the user types "exit" or
// "quit".
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mk %s > ", statusFn()))

		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		if ctx.Err() != nil {
			return
		}

		parts := splitCommand(line, 3)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "status":
			cmdErr = a.Status(ctx)

		case "online", "offline":
			cmdErr = a.SetMode(ctx, cmd == "online")

		case "add", "update":
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <type> [json]", cmd))
				continue
			}
			body := ""
			if len(args) > 1 {
				body = args[1]
			}
			cmdErr = a.Write(ctx, models.Operation(cmd), args[0], body)

		case "delete":
			if len(args) < 2 {
				printlnFn("Usage: delete <type> <id>")
				continue
			}
			cmdErr = a.Write(ctx, models.OperationDelete, args[0], args[1])

		case "l", "list":
			if len(args) == 0 {
				printlnFn("Usage: list <type>")
				continue
			}
			cmdErr = a.List(ctx, args[0])

		case "pending":
			cmdErr = a.Pending(ctx)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "last":
			cmdErr = a.Last(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}

// splitCommand splits line into at most n whitespace separated parts. The
// last part keeps its inner whitespace.
func splitCommand(line string, n int) []string {
	var parts []string
	rest := strings.TrimSpace(line)
	for rest != "" && len(parts) < n-1 {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			break
		}
		parts = append(parts, rest[:i])
		rest = strings.TrimSpace(rest[i:])
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
