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

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/config"
	"github.com/luguas/priceye/internal/kafka"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/openweather"
	"github.com/luguas/priceye/internal/queue"
	"github.com/luguas/priceye/internal/records"
	sqlstore "github.com/luguas/priceye/internal/storage/sqlite"
	"github.com/luguas/priceye/internal/weather"
	"github.com/luguas/priceye/internal/weatherapi"
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

	primary, err := openweather.New(cfg.OpenWeather.APIKey, cfg.OpenWeather.BaseURL)
	if err != nil {
		log.Fatalf("openweather: %v", err)
	}
	var fallback collectors.Strategy
	if cfg.WeatherAPI.APIKey != "" {
		fb, err := weatherapi.New(cfg.WeatherAPI.APIKey, cfg.WeatherAPI.BaseURL)
		if err != nil {
			log.Fatalf("weatherapi: %v", err)
		}
		fallback = fb
	}

	collector, err := weather.New(weather.Config{
		Primary:     primary,
		Fallback:    fallback,
		Limiter:     cfg.WeatherBudget.Limiter(),
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
			logging.Errorf("[weather] collect: %v", err)
		}
		logging.Infof("[weather] collected %d records", len(recs))
		if writer != nil {
			if err := writer.Publish(ctx, recs); err != nil {
				logging.Errorf("[weather] publish: %v", err)
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
	logging.Infof("[weather] scheduled %q for %d locations", cfg.Schedule, len(cfg.Locations))

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
