package server

import (
	"arena-server/internal/game"
	"arena-server/internal/snapshot"
)

// JournalObserver turns tick and kill notifications into journal frames.
// It is only called from the tick, so it needs no locking.
type JournalObserver struct {
	j     *snapshot.Journal
	kills []snapshot.Kill
}

func NewJournalObserver(j *snapshot.Journal) *JournalObserver {
	return &JournalObserver{j: j}
}

func (o *JournalObserver) OnKill(e game.KillEvent) {
	o.kills = append(o.kills, snapshot.Kill{Victim: e.VictimUID, Killer: e.KillerUID, Gun: int(e.Gun)})
}

func (o *JournalObserver) OnSession(game.SessionEvent) {}

// OnTick records the tick with the kills seen since the previous one
func (o *JournalObserver) OnTick(s game.TickStats) {
	o.j.Record(snapshot.Summary{
		Tick:           s.Tick,
		DurationMicros: s.Duration.Microseconds(),
		Players:        s.Players,
		Bullets:        s.Bullets,
		Explosives:     s.Explosives,
		Objects:        s.Objects,
		FramesSent:     s.FramesSent,
		Dropped:        s.Dropped,
		Kills:          o.kills,
	})
	o.kills = nil
}
