package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"membership-bot/internal/bot"
	"membership-bot/internal/client"
	"membership-bot/internal/config"
	"membership-bot/internal/handler"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"
	"membership-bot/internal/server"
	"membership-bot/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Log, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("membership bot stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.CloseDatabase(db); err != nil {
			log.WithError(err).Warn("close database")
		}
	}()

	orderRepo := repository.NewOrderRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	discountRepo := repository.NewDiscountRepository(db)

	if err := packageRepo.Seed(ctx, repository.DefaultPackages); err != nil {
		return fmt.Errorf("seed packages: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	discordClient, err := client.NewDiscordClient(&cfg.Discord)
	if err != nil {
		return err
	}
	midtransClient := client.NewMidtransClient(&cfg.Midtrans)
	clock := service.SystemClock

	lifecycleService := service.NewLifecycleService(
		db,
		orderRepo,
		subscriptionRepo,
		packageRepo,
		transactionRepo,
		metrics,
		log.WithField("component", "lifecycle"),
		clock,
	)
	purchaseService := service.NewPurchaseService(
		midtransClient,
		orderRepo,
		subscriptionRepo,
		packageRepo,
		metrics,
		log.WithField("component", "purchase"),
		clock,
	)
	adminService := service.NewAdminService(
		subscriptionRepo,
		transactionRepo,
		discountRepo,
		loc,
		log.WithField("component", "admin"),
		clock,
	)

	dispatcher := bot.NewDispatcher(
		cfg.DispatchQueueSize,
		loc,
		lifecycleService,
		orderRepo,
		discordClient,
		metrics,
		log.WithField("component", "dispatcher"),
	)
	expiryService := service.NewExpiryService(
		subscriptionRepo,
		bot.NewNotifier(discordClient, loc),
		cfg.Expiry.NoticeDays,
		loc,
		metrics,
		log.WithField("component", "expiry"),
		clock,
	)
	webhookService := service.NewWebhookService(dispatcher, metrics, log.WithField("component", "webhook"))

	packages, err := purchaseService.Packages(ctx)
	if err != nil {
		return fmt.Errorf("list packages: %w", err)
	}

	commands := bot.NewCommands(purchaseService, adminService, loc, log.WithField("component", "commands"))
	discordBot := bot.New(discordClient, commands, packages, log.WithField("component", "bot"))

	srv := server.NewServer(
		handler.NewWebhookHandler(webhookService, log.WithField("component", "http")),
		server.Options{
			ServerKey:       cfg.Midtrans.ServerKey,
			VerifySignature: cfg.Midtrans.VerifySignature,
			Metrics:         observability.Handler(registry),
		},
		log.WithField("component", "http"),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return discordBot.Start(gctx)
	})
	g.Go(func() error {
		return expiryService.Start(gctx, cfg.Expiry.Schedule)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.ServerAddr()).Info("starting HTTP server")
		if err := srv.Start(cfg.ServerAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
