package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/cartview"
	"github.com/fyrsmithlabs/cartd/internal/catalog"
	"github.com/fyrsmithlabs/cartd/internal/config"
	"github.com/fyrsmithlabs/cartd/internal/events"
	"github.com/fyrsmithlabs/cartd/internal/storage"
	"github.com/fyrsmithlabs/cartd/internal/telemetry"
)

// Registry provides access to the wired cart components.
type Registry interface {
	Store() *cart.Store
	View() *cartview.View
	Catalog() catalog.Catalog
	Medium() storage.Medium
	// Publisher is nil when events are disabled.
	Publisher() *events.Publisher

	// Close flushes pending notifications and releases the medium.
	Close() error
}

// Options overrides parts of the configuration-driven wiring.
type Options struct {
	Logger    *zap.Logger
	Telemetry *telemetry.Telemetry

	// Medium replaces the medium cfg.Storage would open. The registry
	// still closes it.
	Medium storage.Medium

	// NATSConn replaces the connection cfg.Events would dial. The
	// registry drains it on Close.
	NATSConn *nats.Conn
}

// registry is the concrete implementation of Registry.
type registry struct {
	store     *cart.Store
	view      *cartview.View
	catalog   catalog.Catalog
	medium    storage.Medium
	publisher *events.Publisher
	natsConn  *nats.Conn
	logger    *zap.Logger
}

// Open wires the cart from cfg and hydrates it.
func Open(ctx context.Context, cfg *config.Config, opts Options) (Registry, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &registry{logger: logger, medium: opts.Medium, natsConn: opts.NATSConn}

	if r.medium == nil {
		medium, err := storage.Open(ctx, cfg.Storage, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		r.medium = medium
	}

	catalogPath, err := config.ExpandHome(cfg.Catalog.Path)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	r.catalog = cat
	logger.Debug("catalog loaded", zap.Int("items", cat.Len()), zap.String("path", catalogPath))

	store, err := cart.New(&cart.Config{
		Key:      cfg.Storage.Key,
		Currency: cfg.Cart.Currency,
		Tracer:   opts.Telemetry.Tracer(cart.InstrumentationName),
		Meter:    opts.Telemetry.Meter(cart.InstrumentationName),
	}, cat, r.medium, logger.Named("cart"))
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	r.store = store

	if cfg.Events.Enabled || r.natsConn != nil {
		if r.natsConn == nil {
			nc, err := events.Connect(cfg.Events.NATSURL, logger.Named("events"))
			if err != nil {
				_ = r.Close()
				return nil, err
			}
			r.natsConn = nc
		}
		pub, err := events.NewPublisher(r.natsConn, cfg.Events.SubjectPrefix, store.Key(), logger.Named("events"))
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.publisher = pub
		store.Subscribe(pub)
	}

	view, err := cartview.New(store)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	r.view = view

	store.Hydrate(ctx)
	return r, nil
}

func (r *registry) Store() *cart.Store           { return r.store }
func (r *registry) View() *cartview.View         { return r.view }
func (r *registry) Catalog() catalog.Catalog     { return r.catalog }
func (r *registry) Medium() storage.Medium       { return r.medium }
func (r *registry) Publisher() *events.Publisher { return r.publisher }

func (r *registry) Close() error {
	var errs []error
	if r.natsConn != nil {
		if err := r.natsConn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
		r.natsConn = nil
	}
	if r.medium != nil {
		if err := r.medium.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		r.medium = nil
	}
	return errors.Join(errs...)
}
