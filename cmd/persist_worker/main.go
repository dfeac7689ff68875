package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/luguas/priceye/internal/config"
	"github.com/luguas/priceye/internal/kafka"
	"github.com/luguas/priceye/internal/logging"
	sqlstore "github.com/luguas/priceye/internal/storage/sqlite"
	"github.com/luguas/priceye/internal/workers"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokers := kafka.Brokers()
	if err := kafka.WaitForBroker(ctx, brokers); err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if err := kafka.EnsureTopic(ctx, brokers, cfg.Kafka.Topic); err != nil {
		log.Fatalf("kafka topic: %v", err)
	}

	processor := workers.NewProcessor(store)
	logging.Infof("[persist] %d workers consuming %s as %s", cfg.Kafka.Workers, cfg.Kafka.Topic, cfg.Kafka.Group)
	workers.Run(ctx, brokers, cfg.Kafka.Topic, cfg.Kafka.Group, cfg.Kafka.Workers, processor.Handle)
}
