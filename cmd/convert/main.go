package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/luguas/priceye/internal/cache"
	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/config"
	"github.com/luguas/priceye/internal/currency"
	"github.com/luguas/priceye/internal/exchangerate"
	"github.com/luguas/priceye/internal/frankfurter"
	"github.com/luguas/priceye/internal/logging"
	sqlstore "github.com/luguas/priceye/internal/storage/sqlite"
)

// One-shot conversion against the cached or live rate table:
//
//	convert -amount 120 -from USD -to EUR [-date 2026-08-20]
func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	amount := flag.Float64("amount", 0, "amount to convert")
	from := flag.String("from", "", "source currency code")
	to := flag.String("to", "", "target currency code")
	dateStr := flag.String("date", "", "rate date YYYY-MM-DD (default today)")
	flag.Parse()

	logging.InitFromEnv()

	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "usage: convert -amount N -from USD -to EUR [-date YYYY-MM-DD]")
		os.Exit(2)
	}

	date := time.Now().UTC()
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			log.Fatalf("bad date %q: %v", *dateStr, err)
		}
		date = parsed
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := sqlstore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	primary := frankfurter.New(cfg.Frankfurter.BaseURL)
	var fallback collectors.Strategy
	if cfg.ExchangeRate.APIKey != "" {
		fb, err := exchangerate.New(cfg.ExchangeRate.APIKey, cfg.ExchangeRate.BaseURL)
		if err != nil {
			log.Fatalf("exchangerate: %v", err)
		}
		fallback = fb
	}

	readers := []currency.RateReader{}
	writers := []currency.RateWriter{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRateCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLHours)*time.Hour, "fx")
		if err == nil {
			defer rc.Close()
			readers = append(readers, rc)
			writers = append(writers, rc)
		}
	}
	readers = append(readers, store)
	writers = append(writers, store)

	converter, err := currency.New(currency.Config{
		BaseCurrency: cfg.BaseCurrency,
		Primary:      primary,
		Fallback:     fallback,
		Limiter:      cfg.CurrencyBudget.Limiter(),
		Retry:        cfg.Retry.Policy(),
		Readers:      readers,
		Writers:      writers,
	})
	if err != nil {
		log.Fatalf("build converter: %v", err)
	}

	result, err := converter.Convert(context.Background(), *amount, *from, *to, date)
	if err != nil {
		log.Fatalf("convert: %v", err)
	}
	fmt.Printf("%.2f %s = %.2f %s (%s)\n", *amount, *from, result, *to, date.Format("2006-01-02"))
}
