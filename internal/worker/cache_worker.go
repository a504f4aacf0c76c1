package worker

import (
	"context"
	"log"

	"github.com/qloteam/Qloset-sub000/internal/broker"
	"github.com/qloteam/Qloset-sub000/internal/models"
	"github.com/qloteam/Qloset-sub000/internal/service"
)

// StockCacheWorker keeps the Redis stock snapshot fresh by consuming
// order lifecycle events and re-reading the touched variants.
type StockCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewStockCacheWorker creates a new stock cache worker
func NewStockCacheWorker(consumer *broker.Consumer, inventory *service.InventoryService) *StockCacheWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderEvent(func(ctx context.Context, eventType string, items []models.OrderItemData) error {
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.VariantID)
		}
		inventory.RefreshVariants(ctx, ids)
		return nil
	})

	return &StockCacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *StockCacheWorker) Start(ctx context.Context) error {
	log.Println("Starting stock cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockCacheWorker) Stop() error {
	log.Println("Stopping stock cache worker...")
	return w.consumer.Close()
}
