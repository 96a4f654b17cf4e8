package game

import (
	"math"
	"testing"

	"arena-server/internal/entity"
)

// fire launches a 4x4 custom bullet heading +x from (x, y)
func fire(g *Game, owner *entity.Player, x, y, damage float64) *entity.Bullet {
	b := g.bullets.createCustom(owner, false, false)
	b.Launch(x, y, 0, 10, 0)
	b.Width, b.Height = 4, 4
	b.Damage = damage
	b.MaxDistance = 500
	b.Invulnerable = false
	return b
}

func TestBulletStopsAtCrate(t *testing.T) {
	g := newTestGame(t, nil)
	shooter := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, shooter, 600, 600)
	g.crates.add(entity.NewCrate(g.crates.nextID(), entity.KindCrate, 1500, 1500, 0))

	fire(g, shooter, 1420, 1498, 30)
	for range 5 {
		g.bullets.update()
	}
	if g.bullets.len() != 0 {
		t.Errorf("expected the crate to stop the bullet, %d left", g.bullets.len())
	}
	if g.crates.len() != 1 {
		t.Errorf("expected static crates to survive, got %d objects", g.crates.len())
	}
}

func TestBulletBreaksUserCrate(t *testing.T) {
	g := newTestGame(t, nil)
	shooter := join(t, g, &fakeSender{}, entity.Pistol)
	builder := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, shooter, 600, 600)
	place(g, builder, 600, 900)
	crate := entity.NewUserCrate(g.crates.nextID(), builder.UID, 1500, 1500, false, 0)
	g.crates.add(crate)

	for i := 1; i <= 2; i++ {
		fire(g, shooter, 1440, 1498, 600)
		for range 5 {
			g.bullets.update()
		}
		if g.bullets.len() != 0 {
			t.Fatalf("shot %d: expected the bullet to be consumed", i)
		}
		if shooter.Score != i {
			t.Errorf("shot %d: expected score %d, got %d", i, i, shooter.Score)
		}
	}
	if _, ok := g.crates.get(crate.UID); ok {
		t.Errorf("expected the crate to break, hp %v", crate.HP)
	}
}

func TestShieldBlocksOnlyOtherPlayers(t *testing.T) {
	g := newTestGame(t, nil)
	shooter := join(t, g, &fakeSender{}, entity.Pistol)
	other := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, shooter, 600, 600)
	place(g, other, 600, 900)

	own := entity.NewShield(g.crates.nextID(), shooter.UID)
	own.X, own.Y = 1500, 1500
	g.crates.add(own)

	fire(g, shooter, 1440, 1498, 30)
	for range 10 {
		g.bullets.update()
	}
	if g.bullets.len() != 1 {
		t.Fatalf("expected the bullet to pass its owner's shield, %d left", g.bullets.len())
	}

	g.crates.remove(own)
	enemy := entity.NewShield(g.crates.nextID(), other.UID)
	enemy.X, enemy.Y = 1600, 1500
	g.crates.add(enemy)
	for range 10 {
		g.bullets.update()
	}
	if g.bullets.len() != 0 {
		t.Errorf("expected another player's shield to stop the bullet, %d left", g.bullets.len())
	}
}

func TestBulletPoolExhaustion(t *testing.T) {
	g := newTestGame(t, nil)
	p := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, p, 3000, 3000)

	for i := 0; i <= maxBulletUID; i++ {
		if b := g.bullets.createCustom(p, false, false); b == nil {
			t.Fatalf("expected uid %d to be free", i)
		}
	}
	if b := g.bullets.create(p); b != nil {
		t.Errorf("expected nil once the pool is empty, got uid %d", b.UID)
	}
	if b := g.bullets.createCustom(p, true, false); b != nil {
		t.Errorf("expected nil custom bullet, got uid %d", b.UID)
	}
}

func TestNonFiniteBulletIsUnloaded(t *testing.T) {
	g := newTestGame(t, nil)
	p := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, p, 3000, 3000)

	b := g.bullets.createCustom(p, false, false)
	b.Launch(math.NaN(), 1000, 0, 10, 0)
	b.MaxDistance = 500
	uid := b.UID

	g.bullets.update()
	if g.bullets.len() != 0 {
		t.Fatalf("expected the bullet to be unloaded, %d left", g.bullets.len())
	}
	if next := g.bullets.createCustom(p, false, false); next == nil || next.UID != uid {
		t.Errorf("expected uid %d to be free again", uid)
	}
}
