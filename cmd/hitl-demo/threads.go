package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agentpatterns/hitlkit"
)

func runThreads(args []string, out io.Writer) error {
	env := storeOptionsFromEnv()

	fs := flag.NewFlagSet("threads", flag.ContinueOnError)
	pattern := fs.String("pattern", hitlkit.PatternDirect.ID, "pattern id: pattern1, pattern2 or pattern3")
	kind := fs.String("store", env.Kind, "thread store: memory, file, postgres, pgsql or redis")
	file := fs.String("store-file", env.File, "path of the file store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env.Kind = *kind
	env.File = *file

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("usage: threads <list|current|new|save NAME|delete ID>")
	}

	p, ok := hitlkit.PatternByID(*pattern)
	if !ok {
		return fmt.Errorf("unknown pattern %q", *pattern)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closeStore()

	// No agent: only thread bookkeeping is used.
	session, err := hitlkit.New(ctx, nil, hitlkit.Config{Namespace: p.Namespace, Store: store})
	if err != nil {
		return err
	}
	defer session.Close()

	switch rest[0] {
	case "list":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSAVED")
		for _, rec := range session.SavedThreads(ctx) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.ID, rec.Name, rec.SavedAtText())
		}
		return tw.Flush()

	case "current":
		fmt.Fprintln(out, session.ThreadID(ctx))
		return nil

	case "new":
		id, err := session.NewThread(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id)
		return nil

	case "save":
		rec, err := session.SaveThread(ctx, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s as %q\n", rec.ID, rec.Name)
		return nil

	case "delete":
		if len(rest) < 2 {
			return errors.New("usage: threads delete ID")
		}
		removed, err := session.DeleteSavedThread(ctx, rest[1])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no saved thread %s", rest[1])
		}
		fmt.Fprintf(out, "deleted %s\n", rest[1])
		return nil

	default:
		return fmt.Errorf("unknown threads command %q", rest[0])
	}
}
