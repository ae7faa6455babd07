package notifier

import (
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"VoteEscrow/internal/model"
)

const dateLayout = "2006-01-02 15:04 UTC"

// SupplyReport is the ledger-wide view shown in reports.
type SupplyReport struct {
	Now         int64
	Height      int64
	Epoch       int64
	Locked      math.Int
	TotalSupply math.Int
	Symbol      string
	Decimals    int
}

// AccountReport is one account's lock and voting power.
type AccountReport struct {
	Address  common.Address
	Now      int64
	Lock     model.LockedBalance
	Votes    math.Int
	Symbol   string
	Decimals int
}

// DistributorReport summarizes fee distribution.
type DistributorReport struct {
	Now              int64
	TimeCursor       int64
	LastTokenTime    int64
	TokenLastBalance math.Int
	// ThisWeek and LastWeek are the fee buckets of the current and previous week.
	ThisWeek           math.Int
	LastWeek           math.Int
	LastWeekSupply     math.Int
	CanCheckpointToken bool
	IsKilled           bool
	FeeDecimals        int
	BaseDecimals       int
}

// FormatAmount renders base units with the asset's decimals.
func FormatAmount(v math.Int, decimals int) string {
	if v.IsNil() {
		return "0"
	}
	return decimal.NewFromBigInt(v.BigInt(), -int32(decimals)).String()
}

func formatTime(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(ts, 0).UTC().Format(dateLayout)
}

// FormatSupply formats the ledger totals.
func FormatSupply(s SupplyReport) string {
	var b strings.Builder
	b.WriteString("🔒 <b>Escrow supply</b>\n\n")
	b.WriteString(fmt.Sprintf("Locked: %s\n", FormatAmount(s.Locked, s.Decimals)))
	b.WriteString(fmt.Sprintf("Voting power: %s %s\n", FormatAmount(s.TotalSupply, s.Decimals), s.Symbol))
	b.WriteString(fmt.Sprintf("Epoch: %d | Height: %d\n", s.Epoch, s.Height))
	b.WriteString(fmt.Sprintf("As of: %s\n", formatTime(s.Now)))
	return b.String()
}

// FormatAccount formats one account's lock.
func FormatAccount(a AccountReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👤 <b>%s</b>\n\n", a.Address.Hex()))
	if a.Lock.Amount.IsNil() || a.Lock.Amount.IsZero() {
		b.WriteString("No lock\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Locked: %s\n", FormatAmount(a.Lock.Amount, a.Decimals)))
	b.WriteString(fmt.Sprintf("Unlocks: %s", formatTime(a.Lock.End)))
	if a.Lock.End <= a.Now {
		b.WriteString(" (expired, withdrawable)")
	} else {
		weeks := (a.Lock.End - a.Now) / model.Week
		b.WriteString(fmt.Sprintf(" (%d weeks left)", weeks))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Voting power: %s %s\n", FormatAmount(a.Votes, a.Decimals), a.Symbol))
	return b.String()
}

// FormatDistributor formats the distributor's cursors and buckets.
func FormatDistributor(d DistributorReport) string {
	var b strings.Builder
	b.WriteString("💸 <b>Fee distributor</b>\n\n")
	if d.IsKilled {
		b.WriteString("⚠️ Killed: claims and burns are closed\n")
	}
	b.WriteString(fmt.Sprintf("Undistributed balance: %s\n", FormatAmount(d.TokenLastBalance, d.FeeDecimals)))
	b.WriteString(fmt.Sprintf("This week: %s | Last week: %s\n",
		FormatAmount(d.ThisWeek, d.FeeDecimals), FormatAmount(d.LastWeek, d.FeeDecimals)))
	b.WriteString(fmt.Sprintf("Last week voting supply: %s\n", FormatAmount(d.LastWeekSupply, d.BaseDecimals)))
	b.WriteString(fmt.Sprintf("Last token checkpoint: %s\n", formatTime(d.LastTokenTime)))
	b.WriteString(fmt.Sprintf("Supply snapshotted until: %s\n", formatTime(d.TimeCursor)))
	b.WriteString(fmt.Sprintf("Public checkpoints: %v\n", d.CanCheckpointToken))
	return b.String()
}

// FormatWeeklyReport combines supply and distributor views.
func FormatWeeklyReport(s SupplyReport, d DistributorReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Weekly report</b> | %s\n\n", time.Unix(s.Now, 0).UTC().Format("2006-01-02")))
	b.WriteString(FormatSupply(s))
	b.WriteString("\n")
	b.WriteString(FormatDistributor(d))
	return b.String()
}

// FormatHelp lists the operator commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("<b>Commands</b>\n")
	b.WriteString("/supply - locked amount and total voting power\n")
	b.WriteString("/votes &lt;address&gt; - current voting power\n")
	b.WriteString("/lock &lt;address&gt; - lock amount and unlock time\n")
	b.WriteString("/distributor - fee distributor status\n")
	return b.String()
}
