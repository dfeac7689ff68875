package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/luguas/priceye/internal/cache"
	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/config"
	"github.com/luguas/priceye/internal/currency"
	"github.com/luguas/priceye/internal/exchangerate"
	"github.com/luguas/priceye/internal/frankfurter"
	"github.com/luguas/priceye/internal/kafka"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/queue"
	"github.com/luguas/priceye/internal/records"
	sqlstore "github.com/luguas/priceye/internal/storage/sqlite"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	once := flag.Bool("once", false, "run a single collection and exit")
	flag.Parse()

	logging.InitFromEnv()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := sqlstore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	converter, cleanup, err := buildConverter(cfg, store)
	if err != nil {
		log.Fatalf("build converter: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var writer *queue.Writer
	if cfg.Kafka.Enabled {
		writer = mustWriter(ctx, cfg)
		defer writer.Close()
	}

	pairs := currency.Pairs(cfg.BaseCurrency, cfg.QuoteCurrencies)

	run := func() {
		recs, err := converter.Collect(ctx, pairs, records.SingleDay(time.Now().UTC()), true)
		if err != nil {
			logging.Errorf("[rates] collect: %v", err)
		}
		logging.Infof("[rates] collected %d rate records", len(recs))
		if writer != nil {
			if err := writer.Publish(ctx, recs); err != nil {
				logging.Errorf("[rates] publish: %v", err)
			}
		}
	}

	if *once {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, run); err != nil {
		log.Fatalf("bad schedule %q: %v", cfg.Schedule, err)
	}
	c.Start()
	logging.Infof("[rates] scheduled %q for %d pairs from %s", cfg.Schedule, len(pairs), converter.BaseCurrency())

	<-ctx.Done()
	<-c.Stop().Done()
}

// buildConverter wires the primary/fallback rate providers plus the Redis and
// SQLite rate caches. Redis is optional; without an address the converter
// falls back to the SQLite cache alone.
func buildConverter(cfg config.Config, store *sqlstore.Store) (*currency.Converter, func(), error) {
	primary := frankfurter.New(cfg.Frankfurter.BaseURL)
	var fallback collectors.Strategy
	if cfg.ExchangeRate.APIKey != "" {
		fb, err := exchangerate.New(cfg.ExchangeRate.APIKey, cfg.ExchangeRate.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		fallback = fb
	}

	readers := []currency.RateReader{}
	writers := []currency.RateWriter{}
	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRateCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLHours)*time.Hour, "fx")
		if err != nil {
			logging.Warnf("[rates] redis unavailable, using sqlite cache only: %v", err)
		} else {
			readers = append(readers, rc)
			writers = append(writers, rc)
			cleanup = func() { rc.Close() }
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
		Store:        store,
		Concurrency:  cfg.Concurrency,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return converter, cleanup, nil
}

func mustWriter(ctx context.Context, cfg config.Config) *queue.Writer {
	brokers := kafka.Brokers()
	if err := kafka.WaitForBroker(ctx, brokers); err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if err := kafka.EnsureTopic(ctx, brokers, cfg.Kafka.Topic); err != nil {
		log.Fatalf("kafka topic: %v", err)
	}
	return queue.NewWriter(brokers, cfg.Kafka.Topic)
}
