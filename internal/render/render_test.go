package render

import (
	"bytes"
	"image/png"
	"testing"

	"arena-server/internal/snapshot"
)

func testState() snapshot.State {
	return snapshot.State{
		ArenaSize: 7000,
		FogSize:   2000,
		Players:   []snapshot.Player{{UID: 1, X: 3500, Y: 3500, Radius: 20, Color: 4}},
		Objects:   []snapshot.Object{{UID: 0, Kind: 1, X: 1000, Y: 1000, Width: 100, Height: 100}},
		Bullets:   []snapshot.Bullet{{UID: 0, X: 3600, Y: 3500}},
	}
}

func TestArenaSize(t *testing.T) {
	img := Arena(testState(), 350)
	if b := img.Bounds(); b.Dx() != 350 || b.Dy() != 350 {
		t.Errorf("expected 350x350, got %dx%d", b.Dx(), b.Dy())
	}
	if b := Arena(testState(), 0).Bounds(); b.Dx() != DefaultSize {
		t.Errorf("expected default size %d, got %d", DefaultSize, b.Dx())
	}
	if b := Arena(testState(), 99999).Bounds(); b.Dx() != MaxSize {
		t.Errorf("expected size capped at %d, got %d", MaxSize, b.Dx())
	}
}

func TestArenaDrawsPlayer(t *testing.T) {
	img := Arena(testState(), 700)
	// the player sits in the middle of the image
	r, g, b, _ := img.At(350, 350).RGBA()
	want := playerColors[4]
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Errorf("expected player color %v at the center, got %d,%d,%d", want, r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(5, 5).RGBA()
	if uint8(r>>8) != background.R || uint8(g>>8) != background.G || uint8(b>>8) != background.B {
		t.Errorf("expected background in the corner, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, testState(), 200); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("expected width 200, got %d", img.Bounds().Dx())
	}
}
