package recorder

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"VoteEscrow/internal/model"
)

// SQLiteRecorder persists events to a SQLite database. Amounts are stored as
// decimal text because they exceed 64 bits.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, eris.Wrap(err, "open sqlite")
	}

	// WAL lets dashboards read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "migrate")
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deposits (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at  INTEGER NOT NULL,
			call_id      TEXT NOT NULL,
			provider     TEXT NOT NULL,
			value        TEXT NOT NULL,
			locktime     INTEGER,
			deposit_type TEXT,
			ts           INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_provider ON deposits(provider)`,

		`CREATE TABLE IF NOT EXISTS withdrawals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			call_id     TEXT NOT NULL,
			provider    TEXT NOT NULL,
			value       TEXT NOT NULL,
			ts          INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS supply_changes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			call_id     TEXT NOT NULL,
			prev_supply TEXT NOT NULL,
			supply      TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS token_checkpoints (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			call_id     TEXT NOT NULL,
			time        INTEGER,
			tokens      TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS claims (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			call_id     TEXT NOT NULL,
			recipient   TEXT NOT NULL,
			amount      TEXT NOT NULL,
			claim_epoch INTEGER,
			max_epoch   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_recipient ON claims(recipient)`,

		`CREATE TABLE IF NOT EXISTS governance_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			call_id     TEXT NOT NULL,
			event       TEXT NOT NULL,
			payload     TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return eris.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDeposit(callID string, evt model.DepositEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deposits
		(recorded_at, call_id, provider, value, locktime, deposit_type, ts)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), callID, evt.Provider.Hex(), evt.Value.String(),
		evt.LockTime, evt.Type.String(), evt.Ts,
	)
	return eris.Wrap(err, "insert deposit")
}

func (r *SQLiteRecorder) RecordWithdraw(callID string, evt model.WithdrawEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO withdrawals
		(recorded_at, call_id, provider, value, ts)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), callID, evt.Provider.Hex(), evt.Value.String(), evt.Ts,
	)
	return eris.Wrap(err, "insert withdrawal")
}

func (r *SQLiteRecorder) RecordSupply(callID string, evt model.SupplyEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO supply_changes
		(recorded_at, call_id, prev_supply, supply)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), callID, evt.PrevSupply.String(), evt.Supply.String(),
	)
	return eris.Wrap(err, "insert supply change")
}

func (r *SQLiteRecorder) RecordCheckpointToken(callID string, evt model.CheckpointTokenEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO token_checkpoints
		(recorded_at, call_id, time, tokens)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), callID, evt.Time, evt.Tokens.String(),
	)
	return eris.Wrap(err, "insert token checkpoint")
}

func (r *SQLiteRecorder) RecordClaim(callID string, evt model.ClaimedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO claims
		(recorded_at, call_id, recipient, amount, claim_epoch, max_epoch)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), callID, evt.Recipient.Hex(), evt.Amount.String(),
		evt.ClaimEpoch, evt.MaxEpoch,
	)
	return eris.Wrap(err, "insert claim")
}

func (r *SQLiteRecorder) RecordGovernance(callID string, evt model.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return eris.Wrap(err, "encode governance event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO governance_events
		(recorded_at, call_id, event, payload)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), callID, evt.EventName(), string(payload),
	)
	return eris.Wrap(err, "insert governance event")
}

// ClaimedTotal sums every amount recorded as claimed by recipient.
func (r *SQLiteRecorder) ClaimedTotal(recipient common.Address) (math.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT amount FROM claims WHERE recipient = ?`, recipient.Hex())
	if err != nil {
		return math.Int{}, eris.Wrap(err, "query claims")
	}
	defer rows.Close()

	total := math.ZeroInt()
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return math.Int{}, eris.Wrap(err, "scan claim")
		}
		v, ok := math.NewIntFromString(s)
		if !ok {
			return math.Int{}, eris.Errorf("bad claim amount %q", s)
		}
		total = total.Add(v)
	}
	return total, eris.Wrap(rows.Err(), "iterate claims")
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
