// resindex rescans the asset tree and updates the resource id table without
// starting the runtime. Ids already in the table are kept; new files get
// fresh ids and missing ones are reported.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/enginert/runtime/internal/config"
	"github.com/enginert/runtime/internal/persist"
	"github.com/enginert/runtime/internal/resource"
	"go.uber.org/zap"
)

func main() {
	cfgPath := config.Path("config/engine.toml")
	if len(os.Args) > 2 {
		fmt.Fprintln(os.Stderr, "Usage: resindex [engine.toml]")
		os.Exit(1)
	}
	if len(os.Args) == 2 {
		cfgPath = os.Args[1]
	}
	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := persist.OpenStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}
	defer store.Close()

	res, err := resource.NewManager(ctx, resource.Options{
		Root:        cfg.Assets.Root,
		FirstID:     resource.ID(cfg.Assets.FirstID),
		Extensions:  cfg.Assets.Extensions,
		Exclude:     cfg.Assets.Exclude,
		Fingerprint: cfg.Assets.Fingerprint,
	}, store.Metadata, log)
	if err != nil {
		return fmt.Errorf("resources: %w", err)
	}

	rep, err := res.RefreshMetadata(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if store.Log != nil {
		if err := store.Log.AppendReport(ctx, rep); err != nil {
			return fmt.Errorf("record report: %w", err)
		}
	}

	printIDs("added", rep.Added, res)
	printIDs("restored", rep.Restored, res)
	printIDs("modified", rep.Modified, res)
	for _, id := range rep.Evicted {
		fmt.Printf("evicted   %5d\n", id)
	}
	fmt.Printf("%d resources indexed (%s)\n", res.Len(), store.Backend())
	return nil
}

func printIDs(label string, ids []resource.ID, res *resource.Manager) {
	for _, id := range ids {
		path := "?"
		if r, err := res.ByID(id); err == nil {
			path = r.Path()
		}
		fmt.Printf("%-9s %5d  %s\n", label, id, path)
	}
}
