// Package services – InventoryService
//
// This file implements InventoryService, the application-level component that
// owns product reads and direct stock writes. Reads follow the cache-aside
// pattern: the Redis mirror is consulted first and repopulated from the store
// on a miss. Stock writes are write-through: the store row is updated first
// (authoritative), then both mirrored cache entries, and finally a stock
// event is published so connected clients refresh.
//
// Cache failures after a successful authoritative write are logged and
// swallowed; the next cache-aside read repairs the mirror.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include product identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/cache"
	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
)

// ProductRepo defines the repository contract required by InventoryService.
type ProductRepo interface {
	// GetProduct fetches a product row by ID.
	GetProduct(ctx context.Context, db *gorm.DB, id int) (*domain.Product, error)

	// CountProducts returns the total number of products for pagination.
	CountProducts(ctx context.Context, db *gorm.DB) (int64, error)

	// ListProductsPage returns a page of products ordered by ID.
	ListProductsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error)

	// GetStock reads the authoritative stock level for a product.
	GetStock(ctx context.Context, db *gorm.DB, id int) (int, error)

	// UpdateStock overwrites the stock level for a product.
	UpdateStock(ctx context.Context, db *gorm.DB, id, stock int) error
}

// StockCache is the subset of the Redis client the service depends on.
type StockCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Publish(ctx context.Context, channel, payload string) error
}

// ProductSnapshot is the cached JSON representation of a product, also used
// as the API read model.
type ProductSnapshot struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Stock    int     `json:"stock"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

// Snapshot derives the cached form of a product row.
func Snapshot(p *domain.Product) ProductSnapshot {
	return ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Stock:    p.Stock,
		Price:    p.Price,
		ImageURL: p.ImageURL,
	}
}

// InventoryService provides product reads and direct stock writes over the
// store and its Redis mirror.
type InventoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the product repository used by this service.
	Repo ProductRepo
	// Cache is the Redis mirror of product state.
	Cache StockCache
	// Channel is the pub/sub channel stock events are published on.
	Channel string
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(db *gorm.DB, r ProductRepo, c StockCache, channel string) *InventoryService {
	return &InventoryService{DB: db, Repo: r, Cache: c, Channel: channel}
}

// GetStock returns the stock level for a product, preferring the cache and
// repopulating it from the store on a miss. A cached product snapshot, when
// present, is patched so both mirrored entries agree.
func (s *InventoryService) GetStock(ctx context.Context, id int) (int, error) {
	tr := otel.Tracer("services/InventoryService")
	ctx, span := tr.Start(ctx, "GetStock",
		trace.WithAttributes(attribute.Int("product.id", id)),
	)
	defer span.End()

	if v, ok, err := s.Cache.Get(ctx, cache.StockKey(id)); err != nil {
		return 0, err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
		// Corrupt entry; fall through to the store and rewrite it.
	}

	n, err := s.Repo.GetStock(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	s.warmStock(ctx, id, n)
	s.patchProductStock(ctx, id, n)
	return n, nil
}

// GetProduct returns the product snapshot, preferring the cached copy and
// repopulating it from the store on a miss. The stock entry is rewritten
// alongside the snapshot so both mirrored entries agree.
func (s *InventoryService) GetProduct(ctx context.Context, id int) (*ProductSnapshot, error) {
	tr := otel.Tracer("services/InventoryService")
	ctx, span := tr.Start(ctx, "GetProduct",
		trace.WithAttributes(attribute.Int("product.id", id)),
	)
	defer span.End()

	if v, ok, err := s.Cache.Get(ctx, cache.ProductKey(id)); err != nil {
		return nil, err
	} else if ok {
		var snap ProductSnapshot
		if err := json.Unmarshal([]byte(v), &snap); err == nil {
			return &snap, nil
		}
	}

	p, err := s.Repo.GetProduct(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	snap := Snapshot(p)
	s.warmProduct(ctx, &snap)
	s.warmStock(ctx, id, snap.Stock)
	return &snap, nil
}

// ListProducts returns a page of product snapshots straight from the store.
// It applies defaults for invalid page/pageSize and returns total count.
func (s *InventoryService) ListProducts(ctx context.Context, page, pageSize int) ([]ProductSnapshot, int64, error) {
	tr := otel.Tracer("services/InventoryService")
	ctx, span := tr.Start(ctx, "ListProducts",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountProducts(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []ProductSnapshot{}, 0, nil
	}

	items, err := s.Repo.ListProductsPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	snaps := make([]ProductSnapshot, 0, len(items))
	for i := range items {
		snaps = append(snaps, Snapshot(&items[i]))
	}
	return snaps, total, nil
}

// SetStock overwrites the stock level for a product. The store row is the
// authoritative write; both cache entries are then refreshed and a stock
// event is published. Cache and publish failures do not fail the call.
func (s *InventoryService) SetStock(ctx context.Context, id, stock int) error {
	tr := otel.Tracer("services/InventoryService")
	ctx, span := tr.Start(ctx, "SetStock",
		trace.WithAttributes(
			attribute.Int("product.id", id),
			attribute.Int("stock", stock),
		),
	)
	defer span.End()

	if stock < 0 {
		return ErrInvalidStock
	}
	if err := s.Repo.UpdateStock(ctx, s.DB, id, stock); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.RefreshProduct(ctx, id)

	payload, _ := json.Marshal(domain.StockEvent{ProductID: id, Stock: stock})
	if err := s.Cache.Publish(ctx, s.Channel, string(payload)); err != nil {
		log.Warn().Err(err).Int("product_id", id).Msg("stock event publish failed")
	}
	return nil
}

// RefreshProduct re-reads a product from the store and rewrites both of its
// cache entries. Failures are logged and swallowed; the mirror is repaired
// by the next cache-aside read.
func (s *InventoryService) RefreshProduct(ctx context.Context, id int) {
	p, err := s.Repo.GetProduct(ctx, s.DB, id)
	if err != nil {
		log.Warn().Err(err).Int("product_id", id).Msg("cache refresh read failed")
		return
	}
	snap := Snapshot(p)
	s.warmStock(ctx, id, snap.Stock)
	s.warmProduct(ctx, &snap)
}

// patchProductStock rewrites the cached product snapshot with the given stock
// level when such a snapshot exists, keeping the two mirrored entries in
// agreement. Absent or unreadable snapshots are left for the next product
// read to repopulate.
func (s *InventoryService) patchProductStock(ctx context.Context, id, stock int) {
	v, ok, err := s.Cache.Get(ctx, cache.ProductKey(id))
	if err != nil || !ok {
		return
	}
	var snap ProductSnapshot
	if err := json.Unmarshal([]byte(v), &snap); err != nil {
		return
	}
	if snap.Stock == stock {
		return
	}
	snap.Stock = stock
	s.warmProduct(ctx, &snap)
}

func (s *InventoryService) warmStock(ctx context.Context, id, stock int) {
	if err := s.Cache.Set(ctx, cache.StockKey(id), strconv.Itoa(stock)); err != nil {
		log.Warn().Err(err).Int("product_id", id).Msg("stock cache write failed")
	}
}

func (s *InventoryService) warmProduct(ctx context.Context, snap *ProductSnapshot) {
	b, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, cache.ProductKey(snap.ID), string(b)); err != nil {
		log.Warn().Err(err).Int("product_id", snap.ID).Msg("product cache write failed")
	}
}
