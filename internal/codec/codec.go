// Package codec renders entity state into wire records. Field-inclusion
// builders emit positional slots up to the last requested field and leave
// unrequested slots in that window empty.
package codec

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"arena-server/internal/entity"
	"arena-server/internal/protocol"
)

// LeaderboardSize caps the entries listed in a leaderboard packet
const LeaderboardSize = 10

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floor10(v float64) string {
	return strconv.Itoa(int(math.Floor(v * 10)))
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

type record struct {
	sb strings.Builder
}

func newRecord(code string) *record {
	r := &record{}
	r.sb.WriteString(code)
	return r
}

func (r *record) add(v string) *record {
	r.sb.WriteByte(protocol.FieldSep)
	r.sb.WriteString(v)
	return r
}

func (r *record) n(v int) *record { return r.add(strconv.Itoa(v)) }

func (r *record) String() string {
	r.sb.WriteByte(protocol.RecordSep)
	return r.sb.String()
}

// Aux builds an auxiliary update. Radius is always populated when inside
// the window. Building the packet consumes the pending chat message.
func Aux(p *entity.Player, include protocol.FieldSet[protocol.AuxField]) string {
	r := newRecord(protocol.OutAux)
	for i := range include.Window() {
		f := protocol.AuxField(i)
		if f == protocol.AuxRadius {
			r.add(num(p.Radius * 10))
			continue
		}
		if !include.Has(f) {
			r.add("")
			continue
		}
		r.add(auxValue(p, f))
	}
	p.ChatMessage = ""
	return r.String()
}

func auxValue(p *entity.Player, f protocol.AuxField) string {
	switch f {
	case protocol.AuxUID:
		return strconv.Itoa(p.UID)
	case protocol.AuxCurrentBullets:
		return strconv.Itoa(p.CurrentBullets)
	case protocol.AuxShooting:
		return flag(p.Shooting)
	case protocol.AuxReloading:
		return flag(p.Reloading)
	case protocol.AuxHP:
		return num(p.HP)
	case protocol.AuxBeingHit:
		return flag(p.BeingHit)
	case protocol.AuxArmorAmount:
		return num(p.ArmorAmount)
	case protocol.AuxGhillie:
		return flag(p.Ghillie)
	case protocol.AuxMaxBullets:
		return strconv.Itoa(p.MaxBullets)
	case protocol.AuxInvincible:
		return flag(p.Invincible)
	case protocol.AuxDashing:
		return flag(p.Dashing)
	case protocol.AuxChatBoxOpen:
		return flag(p.ChatBoxOpen)
	case protocol.AuxIsLeader:
		return flag(p.IsLeader)
	case protocol.AuxColor:
		return strconv.Itoa(int(p.Color))
	case protocol.AuxChatMessage:
		return p.ChatMessage
	}
	return ""
}

// Activation builds the full player activation record
func Activation(p *entity.Player) string {
	r := newRecord(protocol.OutActivation)
	for i := range protocol.AllActivationFields.Window() {
		switch protocol.ActivationField(i) {
		case protocol.ActUID:
			r.n(p.UID)
		case protocol.ActGun:
			r.n(int(p.Gun))
		case protocol.ActColor:
			r.n(int(p.Color))
		case protocol.ActX:
			r.add(num(p.X * 10))
		case protocol.ActY:
			r.add(num(p.Y * 10))
		case protocol.ActRadius:
			r.add(num(p.Radius * 10))
		case protocol.ActPlayerAngle:
			r.add(num(p.PlayerAngle))
		case protocol.ActArmorAmount:
			r.add(num(p.ArmorAmount))
		case protocol.ActHP:
			r.add(num(p.HP))
		case protocol.ActMaxBullets:
			r.n(p.MaxBullets)
		case protocol.ActUsername:
			r.add(p.Username)
		case protocol.ActGhillie:
			r.add("")
		case protocol.ActInvincible:
			r.add(flag(p.Invincible))
		case protocol.ActIsLeader:
			r.add(flag(p.IsLeader))
		case protocol.ActIsPremium:
			r.add(flag(p.IsPremium))
		case protocol.ActTeamCode:
			r.n(p.TeamCode)
		case protocol.ActChatBoxOpen:
			r.add(flag(p.ChatBoxOpen))
		}
	}
	return r.String()
}

// FirstPerson builds the private first-person update
func FirstPerson(p *entity.Player, include protocol.FieldSet[protocol.FirstPersonField]) string {
	r := newRecord(protocol.OutFirstPerson)
	for i := range include.Window() {
		f := protocol.FirstPersonField(i)
		if !include.Has(f) {
			r.add("")
			continue
		}
		switch f {
		case protocol.FPCurrentBullets:
			r.n(p.CurrentBullets)
		case protocol.FPScore:
			r.n(p.Score)
		case protocol.FPKills:
			r.n(p.Kills)
		case protocol.FPRechargeTimer:
			r.n(p.RechargeTimer)
		case protocol.FPMaxBullets:
			r.n(p.MaxBullets)
		case protocol.FPWidth:
			r.n(p.Width)
		case protocol.FPThermal:
			r.add(flag(p.Thermal))
		case protocol.FPNumExplosivesLeft:
			r.n(p.NumExplosivesLeft)
		}
	}
	return r.String()
}

// BulletActivation builds a bullet spawn record. Position and velocity
// are populated whenever they fall inside the window.
func BulletActivation(b *entity.Bullet, include protocol.FieldSet[protocol.BulletField]) string {
	r := newRecord(protocol.OutBulletActivate)
	for i := range include.Window() {
		f := protocol.BulletField(i)
		switch f {
		case protocol.BulletX:
			r.add(num(b.X * 10))
			continue
		case protocol.BulletY:
			r.add(num(b.Y * 10))
			continue
		case protocol.BulletSpdX:
			r.add(num(b.SpdX * 25))
			continue
		case protocol.BulletSpdY:
			r.add(num(b.SpdY * 25))
			continue
		}
		if !include.Has(f) {
			r.add("")
			continue
		}
		switch f {
		case protocol.BulletUID:
			r.n(b.UID)
		case protocol.BulletHeight:
			r.add(num(b.Height))
		case protocol.BulletWidth:
			r.add(num(b.Width))
		case protocol.BulletAngle:
			r.add(num(b.Angle))
		case protocol.BulletSilenced:
			r.add(flag(b.Silenced))
		case protocol.BulletIsKnife:
			r.add(flag(b.IsKnife))
		case protocol.BulletIsShrapnel:
			r.add(flag(b.IsShrapnel))
		case protocol.BulletOwnerID:
			r.n(b.OwnerID)
		case protocol.BulletTeamCode:
			r.n(b.TeamCode)
		}
	}
	return r.String()
}

// Object builds a map object load/update record
func Object(o *entity.MapObject, include protocol.FieldSet[protocol.ObjectField]) string {
	r := newRecord(protocol.OutObject)
	for i := range include.Window() {
		f := protocol.ObjectField(i)
		if !include.Has(f) {
			r.add("")
			continue
		}
		switch f {
		case protocol.ObjUID:
			r.n(o.UID)
		case protocol.ObjType:
			r.n(int(o.Kind))
		case protocol.ObjX:
			r.add(num(o.X * 10))
		case protocol.ObjY:
			r.add(num(o.Y * 10))
		case protocol.ObjAngle:
			r.add(num(o.Angle))
		case protocol.ObjParentID:
			r.n(o.ParentID)
		case protocol.ObjHP:
			r.add(num(o.HP))
		case protocol.ObjMaxHP:
			r.add(num(o.MaxHP))
		case protocol.ObjIsPremium:
			r.add(flag(o.IsPremium))
		case protocol.ObjTeam:
			r.n(o.Team)
		}
	}
	return r.String()
}

// ExplosiveActivation builds the explosive spawn record
func ExplosiveActivation(ex *entity.Explosive, el *entity.Exploding, include protocol.FieldSet[protocol.ExplosiveField]) string {
	r := newRecord(protocol.OutExplosiveActivate)
	for i := range include.Window() {
		f := protocol.ExplosiveField(i)
		if !include.Has(f) {
			r.add("")
			continue
		}
		switch f {
		case protocol.ExpUID:
			r.n(ex.UID)
		case protocol.ExpType:
			r.n(int(ex.Kind))
		case protocol.ExpX:
			r.add(floor10(ex.X))
		case protocol.ExpY:
			r.add(floor10(ex.Y))
		case protocol.ExpSpdX:
			r.add(floor10(ex.SpdX))
		case protocol.ExpSpdY:
			r.add(floor10(ex.SpdY))
		case protocol.ExpTravelTime:
			r.n(ex.TravelTime)
		case protocol.ExpEmitting:
			r.add(flag(ex.Emitting))
		case protocol.ExpEmissionRadius:
			r.add(num(el.EmissionRadius))
		case protocol.ExpOwnerID:
			r.n(ex.OwnerID)
		case protocol.ExpTeamCode:
			r.n(ex.TeamCode)
		}
	}
	return r.String()
}

// Exploding builds the per-tick explosive phase record
func Exploding(el *entity.Exploding, include protocol.FieldSet[protocol.ExplodingField]) string {
	r := newRecord(protocol.OutExploding)
	for i := range include.Window() {
		f := protocol.ExplodingField(i)
		if !include.Has(f) {
			r.add("")
			continue
		}
		switch f {
		case protocol.ExplUID:
			r.n(el.UID)
		case protocol.ExplX:
			r.add(floor10(el.X))
		case protocol.ExplY:
			r.add(floor10(el.Y))
		case protocol.ExplExploding:
			r.add(flag(el.Exploding))
		case protocol.ExplEmitting:
			r.add(flag(el.Emitting))
		case protocol.ExplEmissionRadius:
			r.add(floor10(el.EmissionRadius))
		}
	}
	return r.String()
}

// Leaderboard lists the top scorers; the count is the total player count
func Leaderboard(players []*entity.Player) string {
	ranked := Rank(players)
	r := newRecord(protocol.OutLeaderboard).n(len(players))
	for i, p := range ranked {
		if i == LeaderboardSize {
			break
		}
		r.add(p.Username + "." + flag(p.IsMember) + "." + strconv.Itoa(p.Score) + "." +
			strconv.Itoa(p.Kills) + "." + strconv.Itoa(p.TeamCode))
	}
	return r.String()
}

// Rank returns the players ordered by descending score, ties by uid
func Rank(players []*entity.Player) []*entity.Player {
	ranked := make([]*entity.Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].UID < ranked[j].UID
	})
	return ranked
}

// Join builds the private join confirmation for p
func Join(p *entity.Player, fogSize float64) string {
	return newRecord(protocol.OutJoin).
		n(p.UID).n(int(p.Gun)).n(int(p.Color)).
		add(num(p.X * 10)).add(num(p.Y * 10)).add(num(p.Radius * 10)).
		add(num(p.PlayerAngle)).add(num(p.ArmorAmount)).
		n(p.CurrentBullets).n(p.MaxBullets).n(int(p.Armor)).
		add(num(p.HP)).n(p.Width).n(p.Height).add(num(p.HPMax)).
		add(num(fogSize * 10)).add(num(fogSize * 10)).
		add(p.Username).add(flag(p.Invincible)).add(flag(p.IsLeader)).
		add(flag(p.IsPremium)).n(p.TeamCode).n(0).
		String()
}

// PlayerUpdate builds the compact per-tick position record
func PlayerUpdate(p *entity.Player) string {
	return newRecord(protocol.OutPlayerUpdate).
		n(p.UID).add(floor10(p.X)).add(floor10(p.Y)).
		add(floor10(p.SpdX)).add(floor10(p.SpdY)).add(num(p.PlayerAngle)).
		String()
}

// KillerInfo builds the death summary sent to the killed player
func KillerInfo(killed, killer *entity.Player) string {
	r := newRecord(protocol.OutKillerInfo).n(killed.Score).n(killed.Kills)
	for range 6 {
		r.n(0)
	}
	return r.add(killer.Username).add(flag(killer.IsPremium)).
		n(int(killer.Gun)).n(int(killer.Armor)).n(int(killer.Color)).
		n(killer.Kills).n(killer.Score).add(num(killer.HP)).add(num(killer.ArmorAmount)).
		n(-1).n(-1).n(-1).
		String()
}

func KillerOverlay(killer *entity.Player) string {
	return newRecord(protocol.OutOverlay).n(protocol.OverlayKiller).add(killer.Username).String()
}

func CustomOverlay(msg string) string {
	return newRecord(protocol.OutOverlay).n(protocol.OverlayCustom).add(msg).String()
}

func HitMarker(target *entity.Player) string {
	return newRecord(protocol.OutHitMarker).add(floor10(target.X)).add(floor10(target.Y)).String()
}

func BulletUpdate(b *entity.Bullet) string {
	return newRecord(protocol.OutBulletUpdate).n(b.UID).add(num(b.X * 10)).add(num(b.Y * 10)).String()
}

func UnloadPlayer(uid int) string    { return newRecord(protocol.OutUnloadPlayer).n(uid).String() }
func UnloadBullet(uid int) string    { return newRecord(protocol.OutBulletDeactivate).n(uid).String() }
func UnloadObject(uid int) string    { return newRecord(protocol.OutObjectUnload).n(uid).String() }
func UnloadExplosive(uid int) string { return newRecord(protocol.OutExplosiveUnload).n(uid).String() }

func Dead() string       { return newRecord(protocol.OutDead).String() }
func Respawn() string    { return newRecord(protocol.OutRespawn).String() }
func Disconnect() string { return newRecord(protocol.OutDisconnect).String() }
func Full() string       { return newRecord(protocol.OutFull).String() }
func Ping() string       { return newRecord(protocol.OutPing).String() }

func Level(level int) string { return newRecord(protocol.OutLevel).n(level).String() }

func GameType(mode string) string { return newRecord(protocol.OutGameType).add(mode).String() }

func FogSize(size float64) string { return newRecord(protocol.OutFogSize).add(num(size)).String() }

func ScoreSquare(x, y, w, h float64, team int) string {
	return newRecord(protocol.OutScoreSquare).add(num(x)).add(num(y)).add(num(w)).add(num(h)).n(team).String()
}

func FlagPosition(f *entity.MapObject) string {
	return newRecord(protocol.OutFlagPosition).add(num(f.X)).add(num(f.Y)).n(f.Team).String()
}

// DomSquares lists the owning team of every domination square
func DomSquares(owners []int) string {
	r := newRecord(protocol.OutDomSquares)
	for _, t := range owners {
		r.n(t)
	}
	return r.String()
}
