package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/domain/circulation"
	"github.com/yanqian/circulabot/internal/infra/came"
	"github.com/yanqian/circulabot/internal/infra/checklog"
	"github.com/yanqian/circulabot/internal/infra/config"
	"github.com/yanqian/circulabot/internal/infra/levelstore"
	"github.com/yanqian/circulabot/internal/infra/notify/telegram"
	"github.com/yanqian/circulabot/internal/infra/notify/twilio"
	"github.com/yanqian/circulabot/internal/infra/snapshot"
)

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{
		DefaultLastDigit:   cfg.Vehicle.LastDigit,
		DefaultSticker:     circulation.StickerCategory(cfg.Vehicle.Sticker),
		OnlyWhenRestricted: cfg.Notify.OnlyWhenRestricted,
		CacheTTL:           cfg.Came.CacheTTL,
	}
}

func provideContingencySource(cfg *config.Config, logger *slog.Logger) advisor.ContingencySource {
	return came.NewClient(cfg.Came.URLs, cfg.Came.Timeout, logger)
}

func provideReportStore(cfg *config.Config, logger *slog.Logger) advisor.ReportStore {
	if cfg.Cache.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return levelstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return levelstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("valkey report cache enabled", "addr", cfg.Cache.Valkey.Addr)
			return levelstore.NewValkeyStore(client, "circulabot")
		}
	}
	return levelstore.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideCheckRepository(cfg *config.Config, logger *slog.Logger) advisor.CheckRepository {
	fallback := checklog.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("history postgres repository enabled")
	return checklog.NewPostgresRepository(pool)
}

func provideSnapshotArchive(cfg *config.Config, logger *slog.Logger) advisor.SnapshotArchive {
	if !cfg.Archive.S3.Enabled {
		return snapshot.NewMemoryArchive()
	}
	archive, err := snapshot.NewS3Archive(
		cfg.Archive.S3.Endpoint,
		cfg.Archive.S3.AccessKey,
		cfg.Archive.S3.SecretKey,
		cfg.Archive.S3.Bucket,
		cfg.Archive.S3.Region,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize the s3 archive, using memory archive", "error", err)
		return snapshot.NewMemoryArchive()
	}
	logger.Info("s3 snapshot archive enabled", "bucket", cfg.Archive.S3.Bucket)
	return archive
}

func provideNotifiers(cfg *config.Config, logger *slog.Logger) []advisor.Notifier {
	var notifiers []advisor.Notifier

	if cfg.Notify.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID, "", logger)
		if err != nil {
			logger.Error("failed to initialize telegram notifier", "error", err)
		} else {
			notifiers = append(notifiers, client)
		}
	}

	if cfg.Notify.Twilio.Enabled {
		client, err := twilio.NewClient(
			cfg.Notify.Twilio.AccountSID,
			cfg.Notify.Twilio.AuthToken,
			cfg.Notify.Twilio.From,
			cfg.Notify.Twilio.To,
			"",
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize twilio notifier", "error", err)
		} else {
			notifiers = append(notifiers, client)
		}
	}

	if len(notifiers) == 0 {
		logger.Info("no notification channels configured")
	}
	return notifiers
}
