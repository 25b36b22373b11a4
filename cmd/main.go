package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/adapter/memory"
	natsAdapter "github.com/YelzhanWeb/tableside/internal/adapter/nats"
	"github.com/YelzhanWeb/tableside/internal/adapter/postgres"
	"github.com/YelzhanWeb/tableside/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/tableside/internal/app/checkout"
	"github.com/YelzhanWeb/tableside/internal/app/kitchen"
	"github.com/YelzhanWeb/tableside/internal/app/order"
	"github.com/YelzhanWeb/tableside/internal/app/projection"
	"github.com/YelzhanWeb/tableside/internal/app/scheduler"
	"github.com/YelzhanWeb/tableside/internal/app/tables"
	"github.com/YelzhanWeb/tableside/internal/app/tablesync"
	"github.com/YelzhanWeb/tableside/internal/app/topology"
	"github.com/YelzhanWeb/tableside/internal/app/tracking"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/config"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/YelzhanWeb/tableside/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/tableside/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/tableside/internal/adapter/http"
)

const (
	modeServer                 = "server"
	modeNotificationSubscriber = "notification-subscriber"

	shutdownTimeout = 10 * time.Second
)

func main() {
	mode := pflag.String("mode", modeServer, "Service mode: server, notification-subscriber")
	configPath := pflag.String("config", "", "Path to the YAML config file")
	port := pflag.Int("port", 0, "HTTP port (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	lgr := logger.NewWithOptions(*mode, cfg.Logging.Level, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case modeServer:
		err = runServer(ctx, cfg, lgr)
	case modeNotificationSubscriber:
		err = runNotificationSubscriber(ctx, cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error("service_failed", "Service stopped with error", "shutdown", nil, err)
		os.Exit(1)
	}
	lgr.Info("graceful_shutdown", "Service stopped", "shutdown", nil)
}

func runServer(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	clk := clock.Real{}
	policy := domain.TransitionPolicy{
		PendingToPreparing:  cfg.Scheduler.PendingToPreparing,
		PreparingToReady:    cfg.Scheduler.PreparingToReady,
		CounterReadyToDone:  cfg.Scheduler.CounterReadyToDone,
		DeliveryReadyToDone: cfg.Scheduler.DeliveryReadyToDone,
	}

	// Stores and the synchronizer. The synchronizer handler is registered
	// before any order can be written.
	bus := events.NewBus(lgr)
	tableStore := memory.NewTableStore(bus)
	orderStore := memory.NewOrderStore(tableStore, bus)
	synchronizer := tablesync.New(orderStore, tableStore, lgr)
	bus.HandleOrders(synchronizer.OnOrderStatusChanged)

	// Outbound infrastructure
	var (
		orderRepo  interfaces.OrderRepository
		tableRepo  interfaces.TableRepository
		publishers []interfaces.EventPublisher
		mqConn     rabbitmq.Connection
	)

	if cfg.Persistence.Enabled {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		orderRepo = postgres.NewOrderRepository(db)
		tableRepo = postgres.NewTableRepository(db)
	}

	if cfg.UsesRabbitMQ() {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		mqConn = conn
		defer mqConn.Close()

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})

		if cfg.Events.Broker == config.BrokerRabbitMQ || cfg.Events.Broker == config.BrokerBoth {
			publishers = append(publishers, rabbitmq.NewPublisher(mqConn))
		}
	}

	if cfg.UsesNATS() {
		nc, err := natsAdapter.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		pub := natsAdapter.NewPublisher(nc)
		defer pub.Close()
		publishers = append(publishers, pub)

		lgr.Info("nats_connected", "Connected to NATS", "startup", map[string]interface{}{
			"url": cfg.NATS.URL,
		})
	}

	// Services
	orderService := order.NewService(orderStore, synchronizer, clk, lgr)
	kitchenService := kitchen.NewService(orderStore, synchronizer, clk, lgr)
	tableService := tables.NewService(orderStore, tableStore, synchronizer, clk, lgr)
	topologyService := topology.NewService(orderStore, tableStore, synchronizer, lgr)
	checkoutService := checkout.NewService(orderStore, tableStore, synchronizer, synchronizer, clk, lgr)
	trackingService := tracking.NewService(orderStore, tableStore, orderRepo, policy, clk, lgr)
	sched := scheduler.New(orderStore, synchronizer, policy, clk, cfg.Scheduler.Period, lgr)
	proj := projection.NewService(bus, orderStore, orderRepo, tableRepo, publishers, cfg.Events.Buffer, lgr)

	g, gctx := errgroup.WithContext(ctx)

	// The projection listens before boot writes so restored and seeded
	// state reaches the brokers and the database.
	proj.Attach()
	g.Go(func() error {
		return proj.Run(gctx)
	})

	if err := boot(ctx, cfg, orderStore, tableStore, tableService, orderRepo, tableRepo, synchronizer, lgr); err != nil {
		return err
	}

	// HTTP
	router := httpAdapter.NewRouter(lgr,
		httpAdapter.NewEventsHandler(bus, lgr),
		httpAdapter.NewOrderHandler(orderService, lgr),
		httpAdapter.NewKitchenHandler(kitchenService, lgr),
		httpAdapter.NewTrackingHandler(trackingService, lgr),
		httpAdapter.NewTableHandler(tableService, topologyService, checkoutService, lgr),
	)

	// WriteTimeout stays unset: /events responses are long-lived and end when
	// the base context is cancelled.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		lgr.Info("service_started", fmt.Sprintf("Server started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
			"port":   cfg.Server.Port,
			"broker": cfg.Events.Broker,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down server", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sched.Run(gctx)
	})

	if cfg.RabbitMQ.Intake && mqConn != nil {
		consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Prefetch, lgr)
		intake := amqpAdapter.NewOrderHandler(orderService, lgr)
		g.Go(func() error {
			return consumer.ConsumeOrders(gctx, intake.HandleOrder)
		})
	}

	return g.Wait()
}

// boot restores persisted state, realigns table occupancy and seeds the
// configured tables that do not exist yet.
func boot(
	ctx context.Context,
	cfg *config.Config,
	orderStore memory.OrderStore,
	tableStore interfaces.TableStore,
	tableService *tables.Service,
	orderRepo interfaces.OrderRepository,
	tableRepo interfaces.TableRepository,
	synchronizer *tablesync.Synchronizer,
	lgr logger.Logger,
) error {
	if tableRepo != nil && orderRepo != nil {
		restoredTables, err := tableRepo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore tables: %w", err)
		}
		for _, t := range restoredTables {
			if err := tableStore.Create(ctx, t); err != nil {
				return fmt.Errorf("failed to restore table %s: %w", t.Number, err)
			}
		}

		restoredOrders, err := orderRepo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore orders: %w", err)
		}
		for _, o := range restoredOrders {
			orderStore.Restore(o)
		}

		lgr.Info("state_restored", "Restored state from PostgreSQL", "startup", map[string]interface{}{
			"tables": len(restoredTables),
			"orders": len(restoredOrders),
		})
	}

	if err := synchronizer.Reconcile(ctx); err != nil {
		return err
	}

	existing, err := tableStore.List(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		known[t.Number] = struct{}{}
	}

	for _, seed := range cfg.Seed.Tables {
		if _, ok := known[seed.Number]; ok {
			continue
		}
		if _, err := tableService.Create(ctx, seed.Number, seed.Capacity); err != nil {
			return fmt.Errorf("failed to seed table %s: %w", seed.Number, err)
		}
	}

	return nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	var consumer interfaces.NotificationConsumer

	switch cfg.Events.Broker {
	case config.BrokerNATS:
		nc, err := natsAdapter.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Close()
		consumer = natsAdapter.NewSubscriber(nc)

	default:
		conn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer conn.Close()
		consumer = rabbitmq.NewConsumer(conn, 1, lgr)
	}

	handler := amqpAdapter.NewNotificationHandler(os.Stdout, lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", map[string]interface{}{
		"broker": cfg.Events.Broker,
	})

	return consumer.ConsumeNotifications(ctx, handler.HandleNotification)
}
