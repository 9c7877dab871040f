// Command sqlweave scans, parses, and analyzes a single SQL file given on
// the command line and prints whatever scan/parse/analysis diagnostics it
// accumulates, one per line, the same fixed-format report a CI lint step
// would grep for.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sqlweave/engine/pkg/engine"
)

func main() {
	dsn := flag.String("dsn", "", "optional Postgres DSN to sync into the catalog before analyzing")
	driver := flag.String("driver", "pgx", "Postgres driver: pgx or libpq (only used with -dsn)")
	offset := flag.Int("offset", -1, "print completion candidates at this codepoint offset instead of diagnostics")
	k := flag.Int("k", 20, "number of completion candidates to print (with -offset)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sqlweave [-dsn dsn] [-offset n] <file.sql>")
		os.Exit(2)
	}

	text, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("read %s: %v", flag.Arg(0), err)
	}

	cat := engine.NewCatalog()
	if *dsn != "" {
		ctx := context.Background()
		tables, err := cat.SyncSchema(ctx, *dsn, *driver, 0, nil)
		if err != nil {
			log.Fatalf("sync schema: %v", err)
		}
		fmt.Fprintf(os.Stderr, "synced %d table(s)\n", len(tables))
	}

	script := cat.OpenScript(string(text))
	if err := script.Analyze(1); err != nil {
		log.Fatalf("analyze: %v", err)
	}

	if *offset >= 0 {
		cands, err := script.Complete(*offset, *k)
		if err != nil {
			log.Fatalf("complete: %v", err)
		}
		for _, c := range cands {
			fmt.Printf("%d\t%s\t%d\n", c.Kind, c.Name, c.Score)
		}
		return
	}

	diags, err := script.Diagnostics()
	if err != nil {
		log.Fatalf("diagnostics: %v", err)
	}
	for _, d := range diags {
		fmt.Printf("%s:%d:%d: %s: %s\n", flag.Arg(0), d.Line, d.Column, d.Stage, d.Message)
	}
	if len(diags) > 0 {
		os.Exit(1)
	}
}
