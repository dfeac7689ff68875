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

	"github.com/luguas/priceye/internal/competitor"
	"github.com/luguas/priceye/internal/config"
	"github.com/luguas/priceye/internal/kafka"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/queue"
	"github.com/luguas/priceye/internal/records"
	"github.com/luguas/priceye/internal/scrapejob"
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

	collector, err := competitor.New(competitor.Config{
		Token: cfg.ScrapeJob.Token,
		Job: scrapejob.Config{
			BaseURL:      cfg.ScrapeJob.BaseURL,
			PollInterval: time.Duration(cfg.ScrapeJob.PollIntervalSec) * time.Second,
			PollTimeout:  time.Duration(cfg.ScrapeJob.PollTimeoutSec) * time.Second,
		},
		Limiter:     cfg.ScrapeJob.Budget.Limiter(),
		Retry:       cfg.Retry.Policy(),
		Store:       store,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		log.Fatalf("build collector: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var writer *queue.Writer
	if cfg.Kafka.Enabled {
		writer = mustWriter(ctx, cfg)
		defer writer.Close()
	}

	run := func() {
		recs, err := collector.Collect(ctx, cfg.Locations, records.SingleDay(time.Now().UTC()), true)
		if err != nil {
			logging.Errorf("[competitor] collect: %v", err)
		}
		logging.Infof("[competitor] collected %d listing records", len(recs))
		if writer != nil {
			if err := writer.Publish(ctx, recs); err != nil {
				logging.Errorf("[competitor] publish: %v", err)
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
	logging.Infof("[competitor] scheduled %q for %d locations", cfg.Schedule, len(cfg.Locations))

	<-ctx.Done()
	<-c.Stop().Done()
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
