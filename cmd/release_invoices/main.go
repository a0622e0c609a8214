package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/kargoline/tmsgo/internal/config"
	"github.com/kargoline/tmsgo/internal/database"
	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/services/repair"
	"github.com/kargoline/tmsgo/internal/store"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	scope := flag.String("scope", "", "limit to one invoice document number")
	flag.Parse()

	fmt.Println("🧾 Releasing source references held by cancelled invoices...")
	if *dryRun {
		fmt.Println("   (dry run, nothing will be written)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	st := store.New(db)
	rep := repair.New(st, cascade.New(st))

	report, err := rep.ReleaseInvoiceSources(context.Background(), repair.Options{
		DryRun:  *dryRun,
		ScopeID: *scope,
	})
	if err != nil {
		log.Fatalf("❌ Release failed: %v", err)
	}

	for _, d := range report.Details {
		if d.Error != "" {
			fmt.Printf("   ⚠️  %s: %s (%s)\n", d.Entity, d.Action, d.Error)
			continue
		}
		fmt.Printf("   ✓ %s: %s %s\n", d.Entity, d.Action, d.Note)
	}
	fmt.Printf("✅ Done: %d invoices processed, %d released\n", report.Processed, report.Changed)
}
