package scheduler

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
	"VoteEscrow/internal/node"
	"VoteEscrow/internal/notifier"
)

// Notifier delivers operator messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the keeper tasks that keep the ledger and distributor
// checkpointed, and answers operator commands.
type Scheduler struct {
	Cron     *cron.Cron
	Node     *node.Node
	Notifier Notifier
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. nt may be nil when reports are
// disabled.
func NewScheduler(ctx context.Context, n *node.Node, nt Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Node:     n,
		Notifier: nt,
		Ctx:      ctx,
	}
}

// RegisterAll registers the ledger checkpoint, distributor and report tasks.
func (s *Scheduler) RegisterAll(checkpointCron, distributorCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(checkpointCron, s.checkpointTask); err != nil {
		return eris.Wrap(err, "register checkpoint task")
	}
	if _, err := s.Cron.AddFunc(distributorCron, s.distributorTask); err != nil {
		return eris.Wrap(err, "register distributor task")
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return eris.Wrap(err, "register report task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunAllNow runs every keeper task once, then the report.
func (s *Scheduler) RunAllNow() {
	s.checkpointTask()
	s.distributorTask()
	s.reportTask()
}

func (s *Scheduler) checkpointTask() {
	log.Info().Msg("running ledger checkpoint")
	l := s.Node.Ledger()
	if err := s.Node.Exec("checkpoint", l.Checkpoint); err != nil {
		log.Error().Err(err).Msg("ledger checkpoint")
		return
	}
	s.snapshot()
}

func (s *Scheduler) distributorTask() {
	log.Info().Msg("running distributor checkpoints")
	d := s.Node.Distributor()
	var killed bool
	s.Node.Read(func() { killed = d.IsKilled() })
	if killed {
		log.Debug().Msg("distributor is killed, skipping token checkpoint")
	} else if err := s.Node.Exec("checkpoint_token", func() error {
		return d.CheckpointTokenAuthorized(chain.From(s.Node.Operator()))
	}); err != nil {
		log.Error().Err(err).Msg("token checkpoint")
	}
	if err := s.Node.Exec("checkpoint_total_supply", d.CheckpointTotalSupply); err != nil {
		log.Error().Err(err).Msg("total supply checkpoint")
	}
	s.snapshot()
}

func (s *Scheduler) reportTask() {
	log.Info().Msg("running weekly report")
	s.trySend(notifier.FormatWeeklyReport(s.supplyReport(), s.distributorReport()))
}

func (s *Scheduler) snapshot() {
	if err := s.Node.Save(s.Ctx); err != nil {
		log.Error().Err(err).Msg("save snapshot")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/supply":
		return notifier.FormatSupply(s.supplyReport())
	case "/distributor":
		return notifier.FormatDistributor(s.distributorReport())
	case "/votes", "/lock":
		if len(fields) != 2 || !common.IsHexAddress(fields[1]) {
			return "Usage: " + fields[0] + " &lt;address&gt;"
		}
		report := s.accountReport(common.HexToAddress(fields[1]))
		if fields[0] == "/votes" {
			return report.Address.Hex() + ": " + notifier.FormatAmount(report.Votes, report.Decimals) + " " + report.Symbol
		}
		return notifier.FormatAccount(report)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) supplyReport() notifier.SupplyReport {
	var r notifier.SupplyReport
	s.Node.Read(func() {
		l := s.Node.Ledger()
		env := s.Node.Env()
		r = notifier.SupplyReport{
			Now:         env.Now(),
			Height:      env.Height(),
			Epoch:       l.Epoch(),
			Locked:      l.Supply(),
			TotalSupply: l.TotalSupply(),
			Symbol:      l.Symbol(),
			Decimals:    l.Decimals(),
		}
	})
	return r
}

func (s *Scheduler) accountReport(addr common.Address) notifier.AccountReport {
	var r notifier.AccountReport
	s.Node.Read(func() {
		l := s.Node.Ledger()
		r = notifier.AccountReport{
			Address:  addr,
			Now:      s.Node.Env().Now(),
			Lock:     l.Locked(addr),
			Votes:    l.BalanceOf(addr),
			Symbol:   l.Symbol(),
			Decimals: l.Decimals(),
		}
	})
	return r
}

func (s *Scheduler) distributorReport() notifier.DistributorReport {
	var r notifier.DistributorReport
	s.Node.Read(func() {
		d := s.Node.Distributor()
		now := s.Node.Env().Now()
		week := model.FloorWeek(now)
		r = notifier.DistributorReport{
			Now:                now,
			TimeCursor:         d.TimeCursor(),
			LastTokenTime:      d.LastTokenTime(),
			TokenLastBalance:   d.TokenLastBalance(),
			ThisWeek:           d.TokensPerWeek(week),
			LastWeek:           d.TokensPerWeek(week - model.Week),
			LastWeekSupply:     d.VeSupply(week - model.Week),
			CanCheckpointToken: d.CanCheckpointToken(),
			IsKilled:           d.IsKilled(),
			FeeDecimals:        d.Token().Decimals(),
			BaseDecimals:       s.Node.Ledger().Decimals(),
		}
	})
	return r
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Info().Str("message", text).Msg("notifier disabled, report not sent")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
