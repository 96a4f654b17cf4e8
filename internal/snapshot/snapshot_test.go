package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestEncodeDecode(t *testing.T) {
	s := State{
		Tick:      42,
		Mode:      "TDM",
		ArenaSize: 7000,
		FogSize:   2000,
		Players:   []Player{{UID: 1, Username: "a", X: 10, Y: 20, Team: 1}, {UID: 2, Dead: true}},
		Objects:   []Object{{UID: 0, Kind: 1, X: 100, Y: 100, Width: 100, Height: 100}},
	}
	b, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tick != 42 || got.Mode != "TDM" {
		t.Errorf("expected tick 42 mode TDM, got %d %s", got.Tick, got.Mode)
	}
	if len(got.Players) != 2 || got.Players[0].Team != 1 || !got.Players[1].Dead {
		t.Errorf("players not preserved: %+v", got.Players)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Error("expected error for invalid msgpack")
	}
}

func TestJournalRotation(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir, 3, 1, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	for tick := 0; tick < 7; tick++ {
		j.Record(Summary{Tick: tick, Players: tick % 2})
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if j.Dropped() != 0 {
		t.Fatalf("expected no dropped frames, got %d", j.Dropped())
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 journal files, got %d", len(files))
	}

	var ticks []int
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			t.Fatal(err)
		}
		frames, err := ReadJournal(f)
		f.Close()
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		for _, s := range frames {
			ticks = append(ticks, s.Tick)
		}
	}
	if len(ticks) != 7 {
		t.Fatalf("expected 7 frames, got %d", len(ticks))
	}
	for i, tick := range ticks {
		if tick != i {
			t.Errorf("expected tick %d at %d, got %d", i, i, tick)
		}
	}
}

func TestJournalRecordAfterClose(t *testing.T) {
	j, err := OpenJournal(t.TempDir(), 10, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}
	j.Record(Summary{Tick: 1})
	if err := j.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
}
