package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/gripdb/grip/internal/lifecycle"
	"github.com/gripdb/grip/internal/registry"
	"github.com/gripdb/grip/internal/worker"
	"github.com/gripdb/grip/pkg/db"
	badgerstore "github.com/gripdb/grip/pkg/db/badger"
	pebblestore "github.com/gripdb/grip/pkg/db/pebble"
	"github.com/gripdb/grip/pkg/log"
)

// main exercises the handle lifecycle end to end: open an engine, seed
// it, fan out readers that iterate through host handles with background
// prefetch, then force-close everything through the registry.
// go run main.go -engine pebble -dir /tmp/grip
func main() {
	engineName := flag.String("engine", "pebble", "storage engine: pebble or badger")
	dir := flag.String("dir", "", "database directory")
	logLevel := flag.String("log-level", "info", "log level")
	workers := flag.Int("workers", 2, "background prefetch workers")
	readers := flag.Int("readers", 4, "concurrent readers")
	keys := flag.Int("keys", 1000, "seeded key count")
	flag.Parse()

	if *dir == "" {
		stdlog.Fatal("database directory is required")
	}

	level, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		stdlog.Fatal(err)
	}
	log.Init(log.Options{LogLevel: level, Type: log.ConsoleLogger})

	var engine db.Engine
	switch *engineName {
	case "pebble":
		engine, err = pebblestore.NewKVStore(pebblestore.DefaultOptions(*dir))
	case "badger":
		engine, err = badgerstore.NewKVStore(badgerstore.DefaultOptions(*dir))
	default:
		stdlog.Fatalf("unknown engine %q", *engineName)
	}
	if err != nil {
		log.Root.Fatal().Err(err).Str("engine", *engineName).Msg("open engine")
	}

	for i := 0; i < *keys; i++ {
		k := []byte(fmt.Sprintf("key-%06d", i))
		v := []byte(fmt.Sprintf("value-%06d", i))
		if err := engine.Put(k, v); err != nil {
			log.Root.Fatal().Err(err).Msg("seed engine")
		}
	}

	reg := registry.New()
	types := lifecycle.RegisterTypes(reg)
	pool := worker.New(*workers, *workers*4, log.Worker)

	dbHandle := types.OpenDatabase(engine, log.Lifecycle)
	log.Root.Info().
		Str("engine", *engineName).
		Str("db_handle", fmt.Sprint(dbHandle)).
		Msg("database open")

	var g errgroup.Group
	for r := 0; r < *readers; r++ {
		g.Go(func() error {
			itrHandle, err := types.OpenIterator(dbHandle, false, db.ReadOptions{})
			if err != nil {
				return fmt.Errorf("open iterator: %w", err)
			}
			defer types.Release(itrHandle)

			itrRef, err := types.ResolveItr(itrHandle, false)
			if err != nil {
				return fmt.Errorf("resolve iterator: %w", err)
			}
			defer itrRef.Release()
			itr := itrRef.Get()

			count := 0
			res, err := itr.Move(lifecycle.MoveFirst, nil)
			for err == nil && res.OK {
				count++
				// Hand the next step to the pool, then collect it on
				// the next Move.
				if err := itr.Prefetch(pool); err != nil {
					return err
				}
				res, err = itr.Move(lifecycle.MoveNext, nil)
			}
			if err != nil {
				return err
			}
			if count != *keys {
				return fmt.Errorf("scanned %d of %d keys", count, *keys)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Root.Error().Err(err).Msg("reader failed")
		os.Exit(1)
	}

	types.Release(dbHandle)
	pool.Close()
	log.Root.Info().Int("readers", *readers).Int("keys", *keys).Msg("done")
}
