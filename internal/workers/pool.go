package workers

import (
	"context"
	"encoding/json"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/luguas/priceye/internal/kafka"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/queue"
)

// Handler processes one record envelope pulled off the signal topic.
type Handler func(context.Context, *queue.Envelope) error

// Run starts workerCount consumers in one consumer group and blocks until
// ctx is canceled.
func Run(ctx context.Context, brokers []string, topic, group string, workerCount int, handler Handler) {
	if workerCount <= 0 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			reader := kafka.NewReader(brokers, topic, group)
			defer reader.Close()
			consume(ctx, reader, handler)
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
}

func consume(ctx context.Context, reader *kafkago.Reader, handler Handler) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("worker read error: %v", err)
			continue
		}

		var env queue.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			logging.Errorf("worker unmarshal error: %v", err)
			continue
		}

		if handler != nil {
			if err := handler(ctx, &env); err != nil {
				logging.Errorf("worker handler error: %v", err)
			}
		}
	}
}
