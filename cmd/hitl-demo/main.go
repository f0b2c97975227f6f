// Command hitl-demo serves the three integration patterns against an
// in-process scripted agent and manages their threads from the command line.
//
// Usage:
//
//	hitl-demo serve [-addr :8080] [-store memory] [-verbose]
//	hitl-demo threads [-pattern pattern1] <list|current|new|save NAME|delete ID>
//
// Stores are selected with -store or HITL_STORE: memory, file, postgres
// (pgx), pgsql (database/sql) or redis. Postgres stores read DATABASE_URL;
// the redis store reads REDIS_URL.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		if err := runServe(nil); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "threads":
		if err := runThreads(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  hitl-demo serve [-addr :8080] [-store memory|file|postgres|pgsql|redis] [-verbose]
  hitl-demo threads [-pattern pattern1] <list|current|new|save NAME|delete ID>`)
}
