package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/config"
	"VoteEscrow/internal/node"
	"VoteEscrow/internal/notifier"
	"VoteEscrow/internal/recorder"
	"VoteEscrow/internal/scheduler"
	"VoteEscrow/internal/store"
)

func main() {
	setupLogging()
	log.Info().Msg("vesd starting")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init snapshot store
	st, err := store.Open(store.Options{
		Driver:    cfg.Store.Driver,
		Path:      cfg.Store.Path,
		RedisAddr: cfg.Store.RedisAddr,
		Password:  cfg.Store.RedisPassword,
		DB:        cfg.Store.RedisDB,
		Namespace: cfg.Store.Namespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	snap, err := st.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load snapshot")
	}
	genesis := genesisTime(cfg, snap)
	env := chain.NewSystemEnv(time.Unix(genesis, 0),
		cfg.Chain.GenesisHeight, time.Duration(cfg.Chain.BlockIntervalSeconds)*time.Second)
	log.Info().
		Str("driver", cfg.Store.Driver).
		Time("genesis", env.GenesisTime).
		Int64("height", env.Height()).
		Msg("chain environment ready")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	n, err := node.New(node.Config{
		Env:                env,
		GenesisTime:        genesis,
		LedgerAddress:      common.HexToAddress(cfg.Ledger.Address),
		Name:               cfg.Ledger.Name,
		Symbol:             cfg.Ledger.Symbol,
		Version:            cfg.Ledger.Version,
		BaseAsset:          common.HexToAddress(cfg.Ledger.BaseAsset),
		BaseDecimals:       cfg.Ledger.Decimals,
		DistributorAddress: common.HexToAddress(cfg.Distributor.Address),
		FeeAsset:           common.HexToAddress(cfg.Distributor.FeeAsset),
		FeeDecimals:        cfg.Distributor.FeeDecimals,
		StartTime:          cfg.Distributor.StartTime,
		EmergencyReturn:    common.HexToAddress(cfg.Distributor.EmergencyReturn),
		CanCheckpointToken: cfg.Distributor.CanCheckpointToken,
		Operator:           common.HexToAddress(cfg.Admin.Operator),
		Admins:             addresses(cfg.Admin.Addresses),
		Agents:             addresses(cfg.Agents),
		Store:              st,
		Recorder:           rec,
	}, snap)
	if err != nil {
		log.Fatal().Err(err).Msg("init node")
	}
	if err := n.Save(ctx); err != nil {
		log.Fatal().Err(err).Msg("write initial snapshot")
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sched *scheduler.Scheduler
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sched = scheduler.NewScheduler(ctx, n, tn)
	} else {
		log.Warn().Msg("telegram not configured, reports are logged only")
		sched = scheduler.NewScheduler(ctx, n, nil)
	}

	if err := sched.RegisterAll(cfg.Schedule.CheckpointCron, cfg.Schedule.DistributorCron, cfg.Schedule.ReportCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running keeper tasks now")
		go sched.RunAllNow()
	}

	log.Info().Msg("vesd is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	if err := n.Save(context.Background()); err != nil {
		log.Error().Err(err).Msg("final snapshot")
	}
	log.Info().Msg("vesd stopped")
}

// setupLogging reads LOG_LEVEL and LOG_FORMAT=console.
func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if os.Getenv("LOG_FORMAT") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	}
	level := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			level = l
		}
	}
	zerolog.SetGlobalLevel(level)
}

// genesisTime keeps the genesis of the first run so heights stay stable
// across restarts.
func genesisTime(cfg *config.Config, snap *store.Snapshot) int64 {
	if snap != nil && snap.GenesisTime != 0 {
		return snap.GenesisTime
	}
	if cfg.Chain.GenesisTime != 0 {
		return cfg.Chain.GenesisTime
	}
	return time.Now().Unix()
}

func addresses(hexes []string) []common.Address {
	out := make([]common.Address, 0, len(hexes))
	for _, h := range hexes {
		out = append(out, common.HexToAddress(h))
	}
	return out
}
