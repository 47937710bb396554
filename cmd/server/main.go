package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganot/overlap/internal/config"
	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/calendar"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/domain/results"
	"github.com/ganot/overlap/internal/events"
	"github.com/ganot/overlap/internal/holiday"
	"github.com/ganot/overlap/internal/lock"
	"github.com/ganot/overlap/internal/mcp"
	"github.com/ganot/overlap/internal/metrics"
	"github.com/ganot/overlap/internal/transport"
)

var version = "dev"

func main() {
	createKey := flag.Bool("create-key", false, "issue an API key for -user and exit")
	keyUser := flag.String("user", "", "user ID the new API key authenticates as")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *createKey, *keyUser); err != nil {
		logger.Error("server exited", "error", err)
		_ = closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, createKey bool, keyUser string) error {
	store, err := openStorage(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	if createKey {
		return issueKey(ctx, store.keys, keyUser)
	}

	locker, closeLocker, err := newLocker(ctx, cfg.Lock)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	defer closeLocker()

	holidays := holiday.NewCalendar()
	if cfg.Holidays.File != "" {
		if err := holiday.LoadFile(holidays, cfg.Holidays.File); err != nil {
			return fmt.Errorf("holidays: %w", err)
		}
	}

	activitySvc := activity.NewService(store.activity, logger)
	opts := []availability.Option{
		availability.WithHolidays(holidays),
		availability.WithActivityLog(activitySvc),
		availability.WithMembershipGuard(group.NewGuard(store.groups)),
	}

	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus(nil, cfg.Metrics.Namespace)
		opts = append(opts, availability.WithRecorder(prom))
	}

	if cfg.Events.Enabled {
		publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, logger)
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		defer publisher.Close()
		opts = append(opts, availability.WithPublisher(publisher))
	}

	availabilitySvc := availability.NewService(store.intervals, locker, logger, opts...)
	groupSvc := group.NewService(store.groups, availabilitySvc, cfg.Holidays.Country, logger)

	handler := mcp.NewHandler(mcp.Services{
		Availability: availabilitySvc,
		Groups:       groupSvc,
		Results:      results.NewEngine(store.intervals, groupSvc, holidays),
		Calendar:     calendar.NewBuilder(store.intervals, groupSvc, holidays, nil),
		Holidays:     holidays,
		Activity:     activitySvc,
	}, cfg.Holidays.Country, nil)

	mcpCfg := mcp.Config{
		Handler:       handler,
		Resolver:      store.keys,
		AuthEnabled:   cfg.Auth.Enabled,
		DefaultUser:   cfg.Auth.DefaultUser,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	}
	if prom != nil {
		mcpCfg.Metrics = prom
	}
	mcpServer := mcp.NewServer(mcpCfg)

	if cfg.Transport.Mode == "stdio" {
		return runStdio(ctx, logger, mcpServer, cfg.Auth.DefaultUser)
	}

	httpOpts := transport.Options{
		Auth:   transport.DefaultUserMiddleware(cfg.Auth.DefaultUser),
		Logger: logger,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
		),
	}
	if cfg.Auth.Enabled {
		httpOpts.Auth = transport.AuthMiddleware(store.keys)
	}
	if prom != nil {
		httpOpts.Metrics = promhttp.Handler()
		httpOpts.Observer = prom
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return runHTTP(ctx, logger, &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(handler, httpOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}, cfg.Auth.Enabled)
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, user string) error {
	logger.Info("starting stdio transport", "version", version, "user", user)

	// Run returns when stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, server *http.Server, auth bool) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr, "version", version, "auth", auth)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLocker builds the configured lock and bounds how long a writer waits.
func newLocker(ctx context.Context, cfg config.LockConfig) (availability.Locker, func(), error) {
	if cfg.Driver != "redis" {
		return lock.WithWait(lock.NewLocal(), cfg.Wait), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	locker := lock.NewRedis(client, lock.RedisOptions{TTL: cfg.TTL})
	return lock.WithWait(locker, cfg.Wait), func() { _ = client.Close() }, nil
}

func issueKey(ctx context.Context, keys apiKeyStore, userID string) error {
	if userID == "" {
		return errors.New("-create-key needs -user")
	}
	token := uuid.NewString()
	if err := keys.Create(ctx, token, userID, "issued by -create-key"); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}
	fmt.Println(token)
	return nil
}
