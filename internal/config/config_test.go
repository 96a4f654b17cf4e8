package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Game.TickRate != 25 || cfg.Game.FogSize != BaseFogSize || cfg.Game.MaxPlayers != 81 {
		t.Errorf("unexpected defaults %+v", cfg.Game)
	}
	if cfg.Game.DoubleBulletStep {
		t.Error("double bullet step must default to off")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "arena.yaml", `
server:
  addr: ":9000"
  shutdown_timeout: 3s
game:
  mode: tdm
  fog_size: 3000
  bottomless_mags: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Game.Mode != "TDM" || cfg.Game.FogSize != 3000 || !cfg.Game.BottomlessMags {
		t.Errorf("unexpected game config %+v", cfg.Game)
	}
	if cfg.Game.StartingScore != 300 {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "arena.toml", `
[game]
mode = "ctf"
max_players = 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Game.Mode != "CTF" || cfg.Game.MaxPlayers != 10 {
		t.Errorf("unexpected game config %+v", cfg.Game)
	}
}

func TestFogSizeBounds(t *testing.T) {
	g := DefaultGame()
	g.FogSize = 7001
	if err := g.Validate(); !errors.Is(err, ErrFogSizeTooLarge) {
		t.Errorf("expected ErrFogSizeTooLarge, got %v", err)
	}
	g.FogSize = 1999
	if err := g.Validate(); !errors.Is(err, ErrFogSizeTooSmall) {
		t.Errorf("expected ErrFogSizeTooSmall, got %v", err)
	}
	g.FogSize = 7000
	if err := g.Validate(); err != nil {
		t.Errorf("expected 7000 to be valid, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Game){
		"mode":        func(g *Game) { g.Mode = "KOTH" },
		"tick rate":   func(g *Game) { g.TickRate = 0 },
		"max players": func(g *Game) { g.MaxPlayers = 82 },
	}
	for name, mutate := range cases {
		g := DefaultGame()
		mutate(&g)
		if g.Validate() == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "arena.ini", "x=1")
	if _, err := Load(path); err == nil {
		t.Error("expected an error for .ini")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ARENA_ADDR", ":7777")
	t.Setenv("ARENA_MODE", "dom")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Server.Addr != ":7777" || cfg.Game.Mode != "DOM" {
		t.Errorf("unexpected overrides %+v %+v", cfg.Server, cfg.Game)
	}
}

func TestTickInterval(t *testing.T) {
	if got := DefaultGame().TickInterval(); got != 40*time.Millisecond {
		t.Errorf("expected 40ms, got %v", got)
	}
}
