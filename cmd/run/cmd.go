package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/adapter/localfs"
	"github.com/user/pageview-ranker/internal/adapter/minio"
	"github.com/user/pageview-ranker/internal/adapter/postgres"
	"github.com/user/pageview-ranker/internal/adapter/rabbitmq"
	"github.com/user/pageview-ranker/internal/adapter/redis"
	"github.com/user/pageview-ranker/internal/adapter/wikimedia"
	"github.com/user/pageview-ranker/internal/delivery/http/handler"
	"github.com/user/pageview-ranker/internal/delivery/http/router"
	"github.com/user/pageview-ranker/internal/delivery/http/server"
	"github.com/user/pageview-ranker/internal/repository"
	"github.com/user/pageview-ranker/internal/usecase"
	"github.com/user/pageview-ranker/pkg/config"
	"github.com/user/pageview-ranker/pkg/logger"
	"github.com/user/pageview-ranker/pkg/metrics"
	"github.com/user/pageview-ranker/pkg/utils"
)

// Command is the cobra command.
var Command = &cobra.Command{
	Use:   "run",
	Short: "Download, filter and rank every hour between START_TIME and END_TIME",
	RunE:  run,
}

type commandFlags struct {
	envFile string
}

var flags = new(commandFlags)

func init() {
	Command.Flags().StringVar(&flags.envFile, "env-file", ".env", "Optional env file read before the environment")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	rng, err := resolveRange(cfg, time.Now().UTC())
	if err != nil {
		log.Error("invalid date range", zap.Error(err))
		return err
	}
	parallelism, err := cfg.Parallelism()
	if err != nil {
		log.Error("invalid execution target", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	outputs := localfs.NewOutputRepo(cfg.OutputDir)
	w := wire(ctx, cfg, log)
	defer w.close()

	if cfg.MetricsAddr != "" {
		query := usecase.NewHourStatusQuery(w.statuses, outputs, log)
		srv := server.New(cfg.MetricsAddr, router.New(handler.NewHandler(query, w.checks, log), m, reg, log), log)
		if err := srv.Start(); err != nil {
			log.Error("could not start status server", zap.String("addr", cfg.MetricsAddr), zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn("status server forced to shut down", zap.Error(err))
				}
			}()
		}
	}

	pipeline := usecase.NewPipeline(usecase.Dependencies{
		Dumps:    wikimedia.NewDumpRepo(cfg.DumpURLTemplate, cfg.TempDir, cfg.DownloadTimeout(), cfg.TLSInsecureSkipVerify, log),
		Tables:   localfs.NewTableRepo(),
		Outputs:  outputs,
		Ranker:   usecase.NewRanker(cfg.TopN, parallelism, cfg.DeterministicTieBreak),
		Statuses: w.statuses,
		Sinks:    w.sinks,
		Metrics:  m,
		Logger:   log,
	}, usecase.Options{
		Start:                 rng.Start(),
		End:                   rng.End(),
		BlacklistPath:         cfg.BlacklistPath,
		LegacyFetchStartHour:  cfg.LegacyFetchStartHour,
		LegacyAbortOnExisting: cfg.LegacyAbortOnExisting,
	})

	log.Info("starting job",
		zap.String("execution_target", cfg.ExecutionTarget),
		zap.Int("parallelism", parallelism),
		zap.Int("top_n", cfg.TopN),
		zap.Int("sinks", len(w.sinks)),
	)
	summary, runErr := pipeline.Run(ctx)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, "pageviews", summary.RunID, reg); err != nil {
			log.Warn("failed to push metrics", zap.String("url", cfg.PushgatewayURL), zap.Error(err))
		}
		cancel()
	}

	if runErr != nil {
		if isRangeError(runErr) {
			log.Error("invalid date range", zap.String("run_id", summary.RunID), zap.Error(runErr))
		} else {
			log.Error("run failed", zap.String("run_id", summary.RunID), zap.Error(runErr))
		}
		return runErr
	}
	log.Info("job finished",
		zap.String("run_id", summary.RunID),
		zap.Int("hours", summary.Hours),
		zap.Int("completed", len(summary.Completed)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("download_failures", len(summary.DownloadFailures)),
		zap.Bool("aborted", summary.Aborted),
	)
	return nil
}

// resolveRange parses and checks the configured range against now, so a bad
// range fails before any store is contacted.
func resolveRange(cfg *config.Config, now time.Time) (usecase.DateRange, error) {
	start, end, err := parseRange(cfg)
	if err != nil {
		return usecase.DateRange{}, err
	}
	rng, err := usecase.NewDateRange(start, end)
	if err != nil {
		return usecase.DateRange{}, err
	}
	if err := rng.Validate(now); err != nil {
		return usecase.DateRange{}, err
	}
	return rng, nil
}

// parseRange reads START_TIME and END_TIME as UTC wall-clock times. A blank
// END_TIME processes the start hour only.
func parseRange(cfg *config.Config) (time.Time, time.Time, error) {
	start, err := utils.ParseLocalDateTime(cfg.StartTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("START_TIME: %w", err)
	}
	if cfg.EndTime == "" {
		return start, start, nil
	}
	end, err := utils.ParseLocalDateTime(cfg.EndTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("END_TIME: %w", err)
	}
	return start, end, nil
}

func isRangeError(err error) bool {
	return errors.Is(err, usecase.ErrInvalidRange) ||
		errors.Is(err, usecase.ErrFutureTime) ||
		errors.Is(err, usecase.ErrBeforeFirstHour)
}

// wiring holds the optional stores. A store that cannot be reached at
// startup is left out with a warning; the local output stays authoritative.
type wiring struct {
	statuses []repository.HourStatusRepository
	sinks    []repository.ResultSink
	checks   map[string]handler.HealthCheck
	closers  []func()
}

func (w *wiring) close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config, log *zap.Logger) *wiring {
	w := &wiring{checks: make(map[string]handler.HealthCheck)}

	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, hour status cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			rdb.Close()
		} else {
			w.statuses = append(w.statuses, redis.NewHourStatusRepo(rdb, cfg.HourStatusTTL()))
			w.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			w.closers = append(w.closers, func() { rdb.Close() })
			log.Info("redis connection established", zap.String("addr", cfg.RedisAddr))
		}
	}

	if cfg.PostgresURL != "" {
		pool, err := connectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			log.Warn("postgres unavailable, ledger and ranked rows sink disabled", zap.Error(err))
		} else {
			w.statuses = append(w.statuses, postgres.NewHourStatusRepo(pool))
			w.sinks = append(w.sinks, postgres.NewRankedPageviewRepo(pool))
			w.checks["postgres"] = pool.Ping
			w.closers = append(w.closers, pool.Close)
			log.Info("postgres connection pool established")
		}
	}

	if cfg.MinioEndpoint != "" {
		artifacts, err := minio.NewArtifactRepo(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSSL)
		if err != nil {
			log.Warn("minio unavailable, artifact mirror disabled", zap.String("endpoint", cfg.MinioEndpoint), zap.Error(err))
		} else {
			w.sinks = append(w.sinks, artifacts)
			log.Info("minio bucket ready", zap.String("bucket", cfg.MinioBucket))
		}
	}

	if cfg.RabbitMQURL != "" {
		events, err := rabbitmq.NewEventRepo(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			log.Warn("rabbitmq unavailable, completion events disabled", zap.Error(err))
		} else {
			w.sinks = append(w.sinks, events)
			w.closers = append(w.closers, func() {
				if err := events.Close(); err != nil {
					log.Warn("failed to close rabbitmq connection", zap.Error(err))
				}
			})
			log.Info("rabbitmq queue declared", zap.String("queue", cfg.RabbitMQQueue))
		}
	}

	return w
}

// connectPostgres opens a pool and makes sure the schema exists.
func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return pool, nil
}
