// Package render draws a top-down preview of an arena snapshot
package render

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"arena-server/internal/entity"
	"arena-server/internal/snapshot"
)

const (
	DefaultSize = 700
	MaxSize     = 2800
)

var (
	background = color.RGBA{32, 36, 28, 255}
	fogArea    = color.RGBA{58, 66, 50, 255}
	crateColor = color.RGBA{150, 110, 60, 255}
	shieldCol  = color.RGBA{120, 200, 255, 255}
	medkitCol  = color.RGBA{240, 240, 240, 255}
	bulletCol  = color.RGBA{255, 230, 120, 255}
	blastCol   = color.RGBA{255, 120, 40, 110}
	deadCol    = color.RGBA{90, 90, 90, 255}

	// indexed by the player color code
	playerColors = []color.RGBA{
		{220, 60, 60, 255},
		{240, 150, 50, 255},
		{230, 220, 70, 255},
		{80, 190, 90, 255},
		{70, 120, 230, 255},
		{230, 110, 190, 255},
	}
	teamColors = []color.RGBA{{}, {220, 60, 60, 255}, {70, 120, 230, 255}}
)

// Arena draws s scaled to a size x size image
func Arena(s snapshot.State, size int) image.Image {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	world := s.ArenaSize
	if world <= 0 {
		world = 7000
	}

	dc := gg.NewContext(size, size)
	dc.SetColor(background)
	dc.Clear()
	dc.Scale(float64(size)/world, float64(size)/world)

	start := world/2 - s.FogSize/2
	dc.SetColor(fogArea)
	dc.DrawRectangle(start, start, s.FogSize, s.FogSize)
	dc.Fill()

	for _, o := range s.Objects {
		drawObject(dc, o)
	}
	for _, e := range s.Explosives {
		dc.SetColor(blastCol)
		dc.DrawCircle(e.X, e.Y, max(e.Radius, 10))
		dc.Fill()
	}
	for _, b := range s.Bullets {
		dc.SetColor(bulletCol)
		dc.DrawCircle(b.X, b.Y, 8)
		dc.Fill()
	}
	for _, p := range s.Players {
		drawPlayer(dc, p)
	}
	return dc.Image()
}

func drawObject(dc *gg.Context, o snapshot.Object) {
	dc.Push()
	defer dc.Pop()

	switch entity.ObjectKind(o.Kind) {
	case entity.KindShield:
		dc.SetColor(shieldCol)
	case entity.KindMedKit:
		dc.SetColor(medkitCol)
	case entity.KindFlag:
		dc.SetColor(teamColor(o.Team))
	default:
		dc.SetColor(crateColor)
	}
	if entity.ObjectKind(o.Kind) == entity.KindShield {
		dc.RotateAbout(gg.Radians(o.Angle), o.X, o.Y)
	}
	dc.DrawRectangle(o.X-o.Width/2, o.Y-o.Height/2, o.Width, o.Height)
	dc.Fill()
}

func drawPlayer(dc *gg.Context, p snapshot.Player) {
	c := deadCol
	if !p.Dead {
		c = playerColor(p)
	}
	r := max(p.Radius, 4) * 2
	dc.SetColor(c)
	dc.DrawCircle(p.X, p.Y, r)
	dc.Fill()
	if p.Leader {
		dc.SetColor(color.White)
		dc.SetLineWidth(2)
		dc.DrawCircle(p.X, p.Y, r+60)
		dc.Stroke()
	}
}

func playerColor(p snapshot.Player) color.RGBA {
	if p.Team > 0 {
		return teamColor(p.Team)
	}
	if p.Color >= 0 && p.Color < len(playerColors) {
		return playerColors[p.Color]
	}
	return playerColors[0]
}

func teamColor(team int) color.RGBA {
	if team > 0 && team < len(teamColors) {
		return teamColors[team]
	}
	return color.RGBA{200, 200, 200, 255}
}

// WritePNG renders s and encodes it as PNG
func WritePNG(w io.Writer, s snapshot.State, size int) error {
	img := Arena(s, size)
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(w)
}
