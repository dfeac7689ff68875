package main

import (
	"context"
	"flag"
	"log"

	"github.com/luguas/priceye/internal/config"
	sqlstore "github.com/luguas/priceye/internal/storage/sqlite"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	drop := flag.Bool("drop", false, "drop all tables before creating")
	clear := flag.Bool("clear", false, "delete all rows, keep schema")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := sqlstore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if *drop {
		if err := store.DropTables(ctx); err != nil {
			log.Fatalf("drop: %v", err)
		}
	}
	if *clear {
		if err := store.ClearTables(ctx); err != nil {
			log.Fatalf("clear: %v", err)
		}
		log.Printf("cleared tables at %s", store.Path())
		return
	}
	if err := store.CreateTables(ctx); err != nil {
		log.Fatalf("create: %v", err)
	}
	log.Printf("SQLite schema ready at %s", store.Path())
}
