package store

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"arena-server/internal/game"
)

const recorderBuffer = 1024

type recordKind uint8

const (
	recordKill recordKind = iota
	recordJoin
	recordLeave
)

type record struct {
	kind    recordKind
	kill    game.KillEvent
	session game.SessionEvent
	at      time.Time
}

// Recorder implements game.Observer. Kills and sessions are queued without
// blocking the tick and written in batched transactions.
type Recorder struct {
	db        *DB
	log       *zap.Logger
	matchID   int64
	batchSize int
	interval  time.Duration

	records chan record
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
}

// NewRecorder opens a match row for mode and starts the writer
func NewRecorder(db *DB, mode string, batchSize int, interval time.Duration, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	id, err := db.StartMatch(mode, time.Now())
	if err != nil {
		return nil, err
	}
	r := &Recorder{
		db:        db,
		log:       log,
		matchID:   id,
		batchSize: batchSize,
		interval:  interval,
		records:   make(chan record, recorderBuffer),
		stop:      make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	log.Info("match recording started", zap.Int64("match", id), zap.String("mode", mode))
	return r, nil
}

func (r *Recorder) MatchID() int64 { return r.matchID }

// Dropped returns the number of records lost to a full buffer
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

func (r *Recorder) OnTick(game.TickStats) {}

func (r *Recorder) OnKill(e game.KillEvent) {
	r.enqueue(record{kind: recordKill, kill: e, at: time.Now()})
}

func (r *Recorder) OnSession(e game.SessionEvent) {
	kind := recordLeave
	if e.Joined {
		kind = recordJoin
	}
	r.enqueue(record{kind: kind, session: e, at: e.At})
}

func (r *Recorder) enqueue(rec record) {
	select {
	case r.records <- rec:
	default:
		r.dropped.Add(1)
	}
}

// Stop drains pending records and closes the match row
func (r *Recorder) Stop() {
	r.once.Do(func() {
		close(r.stop)
		r.wg.Wait()
		if err := r.db.EndMatch(r.matchID, time.Now()); err != nil {
			r.log.Error("end match", zap.Int64("match", r.matchID), zap.Error(err))
		}
	})
}

func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]record, 0, r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-r.records:
			batch = append(batch, rec)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			for {
				select {
				case rec := <-r.records:
					batch = append(batch, rec)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch in one transaction, in arrival order
func (r *Recorder) flush(batch []record) {
	if len(batch) == 0 {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		r.log.Error("store: begin tx", zap.Error(err))
		return
	}
	defer tx.Rollback()

	for _, rec := range batch {
		switch rec.kind {
		case recordKill:
			k := rec.kill
			_, err = tx.Exec(`INSERT INTO kills (match_id, tick, victim_uid, victim, victim_session,
				killer_uid, killer, killer_session, gun, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.matchID, k.Tick, k.VictimUID, k.Victim, k.VictimSession,
				k.KillerUID, k.Killer, k.KillerSession, int(k.Gun), formatTime(rec.at))
		case recordJoin:
			s := rec.session
			_, err = tx.Exec(`INSERT OR IGNORE INTO sessions (session_id, match_id, uid, username, mode, joined_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				s.SessionID, r.matchID, s.UID, s.Username, s.Mode, formatTime(rec.at))
		case recordLeave:
			s := rec.session
			_, err = tx.Exec(`UPDATE sessions SET left_at = ?, score = ?, kills = ? WHERE session_id = ?`,
				formatTime(rec.at), s.Score, s.Kills, s.SessionID)
		}
		if err != nil {
			r.log.Warn("store: write record", zap.Uint8("kind", uint8(rec.kind)), zap.Error(err))
		}
	}
	if err := tx.Commit(); err != nil {
		r.log.Error("store: commit", zap.Int("records", len(batch)), zap.Error(err))
	}
}
