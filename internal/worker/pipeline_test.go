package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	sqlite "github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-store-backend/internal/cache"
	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/queue"
	"github.com/tbourn/go-store-backend/internal/relay"
	"github.com/tbourn/go-store-backend/internal/repo"
	"github.com/tbourn/go-store-backend/internal/services"
)

// storeShim adapts the repo package functions to the service and worker
// contracts, mirroring the server wiring.
type storeShim struct{}

func (storeShim) GetProduct(ctx context.Context, db *gorm.DB, id int) (*domain.Product, error) {
	return repo.GetProduct(ctx, db, id)
}

func (storeShim) CountProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountProducts(ctx, db)
}

func (storeShim) ListProductsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error) {
	return repo.ListProductsPage(ctx, db, offset, limit)
}

func (storeShim) GetStock(ctx context.Context, db *gorm.DB, id int) (int, error) {
	return repo.GetStock(ctx, db, id)
}

func (storeShim) UpdateStock(ctx context.Context, db *gorm.DB, id, stock int) error {
	return repo.UpdateStock(ctx, db, id, stock)
}

func (storeShim) CreateOrder(ctx context.Context, db *gorm.DB, productID, quantity int) (*domain.Order, error) {
	return repo.CreateOrder(ctx, db, productID, quantity)
}

func (storeShim) GetOrder(ctx context.Context, db *gorm.DB, id int) (*domain.Order, error) {
	return repo.GetOrder(ctx, db, id)
}

func (storeShim) UpdateOrderStatus(ctx context.Context, db *gorm.DB, id int, status string) error {
	return repo.UpdateOrderStatus(ctx, db, id, status)
}

func (storeShim) ReserveStock(ctx context.Context, db *gorm.DB, productID, quantity int) (bool, error) {
	return repo.ReserveStock(ctx, db, productID, quantity)
}

// collectingQueue records intents so the test can replay them through a
// consumer, standing in for the broker between intake and settlement.
type collectingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
}

func (q *collectingQueue) Publish(_ context.Context, key, value []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, queue.Message{Key: key, Value: value})
	return nil
}

func (q *collectingQueue) messages() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]queue.Message, len(q.msgs))
	copy(out, q.msgs)
	return out
}

// Drives a full purchase lifecycle over real sqlite and redis: two buyers
// race for 3 of the 5 remaining units, both pass the advisory check, and the
// settlement worker pays exactly one of them, refreshes the cache, and
// broadcasts the new stock level to a live subscriber.
func TestPipeline_ConcurrentPurchasesSettleOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA busy_timeout=5000;")
	if err := db.AutoMigrate(&domain.Product{}, &domain.Order{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Create(&domain.Product{ID: 1, Name: "Mug", Stock: 5, Price: 5}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	srv := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	invSvc := services.NewInventoryService(db, storeShim{}, c, "stock-updates")
	q := &collectingQueue{}
	orderSvc := services.NewOrderService(db, storeShim{}, invSvc, q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := relay.New(c, "stock-updates", time.Hour, time.Millisecond, 10*time.Millisecond).Subscribe(ctx)
	time.Sleep(50 * time.Millisecond) // let the subscription attach

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := orderSvc.SubmitPurchase(ctx, 1, 3); err != nil {
				t.Errorf("SubmitPurchase: %v", err)
			}
		}()
	}
	wg.Wait()
	intents := q.messages()
	if len(intents) != 2 {
		t.Fatalf("queued intents = %d, want 2", len(intents))
	}

	w := &Settlement{
		DB:          db,
		Repo:        storeShim{},
		Mirror:      invSvc,
		Events:      c,
		Channel:     "stock-updates",
		NewConsumer: func() queue.Consumer { return &fakeConsumer{msgs: intents} },
		MinBackoff:  time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitSettled(t, db, 1, 2)

	paid, failed := 0, 0
	for _, id := range []int{1, 2} {
		o, err := repo.GetOrder(ctx, db, id)
		if err != nil {
			t.Fatalf("order %d: %v", id, err)
		}
		switch o.Status {
		case domain.OrderPaid:
			paid++
		case domain.OrderFailed:
			failed++
		}
	}
	if paid != 1 || failed != 1 {
		t.Fatalf("paid = %d, failed = %d, want exactly one of each", paid, failed)
	}

	if n, err := repo.GetStock(ctx, db, 1); err != nil || n != 2 {
		t.Fatalf("store stock = %d (%v), want 2", n, err)
	}
	if v, ok, err := c.Get(ctx, cache.StockKey(1)); err != nil || !ok || v != "2" {
		t.Fatalf("cached stock = %q ok=%v (%v), want 2", v, ok, err)
	}

	ev := waitPipelineEvent(t, events)
	if ev.ProductID != 1 || ev.Stock != 2 {
		t.Fatalf("broadcast event = %+v, want {1 2}", ev.StockEvent)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

// waitSettled polls until every given order left the pending status.
func waitSettled(t *testing.T, db *gorm.DB, ids ...int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pending := false
		for _, id := range ids {
			o, err := repo.GetOrder(context.Background(), db, id)
			if err != nil || !o.Terminal() {
				pending = true
				break
			}
		}
		if !pending {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("orders did not settle in time")
}

func waitPipelineEvent(t *testing.T, ch <-chan relay.Event) relay.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatal("event channel closed before delivery")
			}
			if ev.KeepAlive {
				continue
			}
			return ev
		case <-deadline:
			t.Fatal("timed out waiting for stock event")
		}
	}
}
