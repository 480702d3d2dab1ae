package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/catalog"
	"github.com/fyrsmithlabs/cartd/internal/storage"
)

// Config configures a Store.
type Config struct {
	// Key is the storage key the cart is persisted under (default: vanthu_cart).
	Key string

	// Currency prefixes amounts in the manifest (default: ₹).
	Currency string

	// Tracer and Meter default to the global OpenTelemetry providers.
	Tracer trace.Tracer
	Meter  metric.Meter
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() *Config {
	return &Config{Key: DefaultKey, Currency: "₹"}
}

// Store owns the cart state. All methods are safe for concurrent use; each
// operation runs to completion, including its persistence write, before the
// next one starts.
type Store struct {
	cfg     *Config
	catalog catalog.Catalog
	medium  storage.Medium
	logger  *zap.Logger

	tracer                trace.Tracer
	meter                 metric.Meter
	mutationCounter       metric.Int64Counter
	persistFailureCounter metric.Int64Counter

	mu         sync.Mutex
	lines      []Line
	persistErr error

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates an empty Store. Call Hydrate to load the persisted cart.
func New(cfg *Config, cat catalog.Catalog, medium storage.Medium, logger *zap.Logger) (*Store, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if medium == nil {
		return nil, errors.New("storage medium is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.Currency == "" {
		c.Currency = "₹"
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(instrumentationName)
	}
	if c.Meter == nil {
		c.Meter = otel.Meter(instrumentationName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		cfg:     &c,
		catalog: cat,
		medium:  medium,
		logger:  logger.With(zap.String("cart.key", c.Key)),
		tracer:  c.Tracer,
		meter:   c.Meter,
	}
	s.initMetrics()
	s.publishGauges(Snapshot{})

	return s, nil
}

// Key returns the storage key.
func (s *Store) Key() string { return s.cfg.Key }

// Currency returns the currency symbol used in derived views.
func (s *Store) Currency() string { return s.cfg.Currency }

// Catalog returns the catalog items are looked up in.
func (s *Store) Catalog() catalog.Catalog { return s.catalog }

// Subscribe registers o for change notifications.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

// Hydrate replaces the in-memory cart with the persisted one. A missing,
// unreadable or malformed document yields an empty cart; Hydrate never fails
// and never writes back. Lines that break the cart's invariants (non-positive
// id or quantity, negative price, repeated id) are dropped.
func (s *Store) Hydrate(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "cart.hydrate")
	defer span.End()

	var lines []Line
	data, err := s.medium.Get(ctx, s.cfg.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("no persisted cart, starting empty")
	case err != nil:
		span.RecordError(err)
		s.logger.Warn("persisted cart unreadable, starting empty", zap.Error(err))
	default:
		var dropped int
		lines, dropped, err = decodeLines(data)
		if err != nil {
			span.RecordError(err)
			s.logger.Warn("persisted cart malformed, starting empty", zap.Error(err))
		} else if dropped > 0 {
			s.logger.Warn("dropped invalid persisted cart lines", zap.Int("dropped", dropped))
		}
		span.SetAttributes(attribute.Int("cart.dropped_lines", dropped))
	}

	s.mu.Lock()
	s.lines = lines
	snap := s.snapshotLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("cart.lines", len(snap.Lines)))
	s.publishGauges(snap)
	s.logger.Info("cart hydrated", zap.Int("lines", len(snap.Lines)), zap.Int64("total", snap.Total))
}

// decodeLines parses a persisted cart and filters lines that violate the
// cart invariants, including lines that would overflow the total.
func decodeLines(data []byte) ([]Line, int, error) {
	var raw []Line
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, err
	}

	lines := make([]Line, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	var total int64
	for _, l := range raw {
		if l.ItemID <= 0 || l.Quantity < 1 || l.UnitPrice < 0 || seen[l.ItemID] {
			continue
		}
		l.Quantity = ClampQuantity(l.Quantity)
		next, ok := addSubtotal(total, l)
		if !ok {
			continue
		}
		total = next
		seen[l.ItemID] = true
		lines = append(lines, l)
	}
	return lines, len(raw) - len(lines), nil
}

// AddItem adds one unit of itemID. An existing line's quantity grows by one;
// otherwise a line with quantity 1 is appended using the catalog's current
// name and price. Ids missing from the catalog are ignored without a write,
// even when a restored line carries them, and so is an add that would
// overflow the cart total.
func (s *Store) AddItem(ctx context.Context, itemID int) (Change, error) {
	return s.mutate(ctx, OpAdd, itemID, func() (bool, bool) {
		item, ok := s.catalog.Find(itemID)
		if !ok {
			return false, false
		}

		if i := s.indexLocked(itemID); i >= 0 {
			next := s.lines[i]
			if next.Quantity >= MaxQuantity {
				return false, true
			}
			next.Quantity++
			if !s.fitsLocked(i, next) {
				return false, false
			}
			s.lines[i] = next
			return true, true
		}

		line := Line{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  1,
		}
		if !s.fitsLocked(-1, line) {
			return false, false
		}
		s.lines = append(s.lines, line)
		return true, true
	})
}

// RemoveItem deletes the line for itemID. Absent ids are ignored without a write.
func (s *Store) RemoveItem(ctx context.Context, itemID int) (Change, error) {
	return s.mutate(ctx, OpRemove, itemID, func() (bool, bool) {
		i := s.indexLocked(itemID)
		if i < 0 {
			return false, false
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return true, true
	})
}

// SetQuantity sets the quantity of an existing line, clamped to at least 1.
// It never removes a line. Absent ids, and quantities that would overflow
// the cart total, are ignored without a write.
func (s *Store) SetQuantity(ctx context.Context, itemID, quantity int) (Change, error) {
	quantity = ClampQuantity(quantity)
	return s.mutate(ctx, OpSetQuantity, itemID, func() (bool, bool) {
		i := s.indexLocked(itemID)
		if i < 0 {
			return false, false
		}
		next := s.lines[i]
		next.Quantity = quantity
		if !s.fitsLocked(i, next) {
			return false, false
		}
		changed := s.lines[i].Quantity != quantity
		s.lines[i] = next
		return changed, true
	})
}

// SetQuantityRaw is SetQuantity for unparsed user input; see ParseQuantity.
func (s *Store) SetQuantityRaw(ctx context.Context, itemID int, raw string) (Change, error) {
	return s.SetQuantity(ctx, itemID, ParseQuantity(raw))
}

// Clear empties the cart and always writes.
func (s *Store) Clear(ctx context.Context) (Change, error) {
	return s.mutate(ctx, OpClear, 0, func() (bool, bool) {
		changed := len(s.lines) > 0
		s.lines = nil
		return changed, true
	})
}

var spanNames = map[Op]string{
	OpAdd:         "cart.add_item",
	OpRemove:      "cart.remove_item",
	OpSetQuantity: "cart.set_quantity",
	OpClear:       "cart.clear",
}

// mutate applies fn under the lock, persists when fn asks for a write, then
// notifies observers outside the lock.
func (s *Store) mutate(ctx context.Context, op Op, itemID int, fn func() (changed, write bool)) (Change, error) {
	ctx, span := s.tracer.Start(ctx, spanNames[op])
	defer span.End()

	s.mu.Lock()
	changed, write := fn()
	var err error
	if write {
		err = s.persistLocked(ctx)
	}
	change := Change{
		Op:       op,
		ItemID:   itemID,
		Changed:  changed,
		Written:  write,
		Snapshot: s.snapshotLocked(),
	}
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("cart.item_id", itemID),
		attribute.Bool("cart.changed", changed),
		attribute.Bool("cart.written", write),
		attribute.Int("cart.lines", len(change.Snapshot.Lines)),
	)
	if s.mutationCounter != nil {
		s.mutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", string(op)),
			attribute.Bool("changed", changed),
		))
	}
	s.publishGauges(change.Snapshot)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
	}

	if !write {
		s.logger.Debug("cart mutation ignored", zap.String("op", string(op)), zap.Int("item_id", itemID))
		return change, nil
	}
	s.logger.Debug("cart mutated",
		zap.String("op", string(op)),
		zap.Int("item_id", itemID),
		zap.Bool("changed", changed),
		zap.Int("item_count", change.Snapshot.ItemCount),
	)
	s.notify(ctx, change)
	return change, err
}

// persistLocked writes the full cart. On failure the in-memory cart is kept
// and the store is marked degraded until a later write succeeds.
func (s *Store) persistLocked(ctx context.Context) error {
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err == nil {
		// memory is already mutated; a caller going away must not skip the write
		err = s.medium.Put(context.WithoutCancel(ctx), s.cfg.Key, data)
	}
	if err != nil {
		s.persistErr = fmt.Errorf("%w: %w", ErrPersistence, err)
		if s.persistFailureCounter != nil {
			s.persistFailureCounter.Add(ctx, 1)
		}
		s.logger.Warn("cart write failed, keeping in-memory state", zap.Error(err))
		return s.persistErr
	}

	if s.persistErr != nil {
		s.logger.Info("cart persistence recovered")
		s.persistErr = nil
	}
	return nil
}

func (s *Store) notify(ctx context.Context, change Change) {
	s.obsMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, o := range observers {
		o.CartChanged(ctx, change)
	}
}

func (s *Store) indexLocked(itemID int) int {
	for i, l := range s.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// fitsLocked reports whether the cart total stays within int64 with the
// line at i replaced by l, or with l appended when i is negative.
func (s *Store) fitsLocked(i int, l Line) bool {
	var total int64
	var ok bool
	for j, cur := range s.lines {
		if j == i {
			cur = l
		}
		if total, ok = addSubtotal(total, cur); !ok {
			return false
		}
	}
	if i < 0 {
		_, ok = addSubtotal(total, l)
		return ok
	}
	return true
}

// addSubtotal returns total + l.Subtotal(), or false when either step
// overflows int64.
func addSubtotal(total int64, l Line) (int64, bool) {
	if l.UnitPrice > 0 && int64(l.Quantity) > math.MaxInt64/l.UnitPrice {
		return total, false
	}
	sub := l.Subtotal()
	if total > math.MaxInt64-sub {
		return total, false
	}
	return total + sub, true
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Lines:    make([]Line, len(s.lines)),
		Degraded: s.persistErr != nil,
	}
	copy(snap.Lines, s.lines)
	for _, l := range s.lines {
		snap.ItemCount += l.Quantity
		snap.Total += l.Subtotal()
	}
	return snap
}

// Snapshot returns the count, lines and total computed from one consistent state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ItemCount returns the sum of all line quantities.
func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	return s.Snapshot().Lines
}

// Total returns the sum of UnitPrice * Quantity over all lines.
func (s *Store) Total() int64 {
	return s.Snapshot().Total
}

// Manifest returns the human-readable order text, or NoItems when empty.
func (s *Store) Manifest() string {
	return FormatManifest(s.Lines(), s.cfg.Currency)
}

// Degraded reports whether the most recent write failed.
func (s *Store) Degraded() bool {
	return s.LastPersistError() != nil
}

// LastPersistError returns the error from the most recent write, or nil if
// it succeeded. The error wraps ErrPersistence.
func (s *Store) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}
