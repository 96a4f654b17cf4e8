package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"arena-server/internal/codec"
	"arena-server/internal/entity"
	"arena-server/internal/protocol"
)

// connection binds a transport sender to the player it controls
type connection struct {
	sender   Sender
	player   *entity.Player
	session  string
	joinedAt time.Time
}

type intentKind uint8

const (
	intentKey intentKind = iota
	intentChat
	intentUpgrade
)

// intent is an input waiting for the next tick
type intent struct {
	kind    intentKind
	input   protocol.Input
	down    bool
	text    string
	upgrade entity.Upgrade
	level   int
}

// networkManager decodes inbound frames, builds per-tick packets and
// flushes every player's queue once per tick
type networkManager struct {
	g                *Game
	log              *zap.Logger
	conns            map[Sender]*connection
	byUID            map[int]*connection
	intents          map[int][]intent
	leaderboardDirty bool
}

func newNetworkManager(g *Game, log *zap.Logger) *networkManager {
	return &networkManager{
		g:       g,
		log:     log,
		conns:   make(map[Sender]*connection),
		byUID:   make(map[int]*connection),
		intents: make(map[int][]intent),
	}
}

func (n *networkManager) broadcast(packet string) {
	for _, p := range n.g.players.list() {
		p.Queue.Push(packet)
	}
}

func (n *networkManager) broadcastExcept(except *entity.Player, packet string) {
	for _, p := range n.g.players.list() {
		if p != except {
			p.Queue.Push(packet)
		}
	}
}

func (n *networkManager) sessionOf(p *entity.Player) string {
	if c, ok := n.byUID[p.UID]; ok && c.player == p {
		return c.session
	}
	return ""
}

// onMessage dispatches every record of an inbound frame. Unknown codes
// and malformed records are ignored.
func (n *networkManager) onMessage(s Sender, frame []byte) {
	for _, pkt := range protocol.Decode(frame) {
		if pkt.Code == protocol.InJoin {
			gun, _ := pkt.Int(1)
			armor, _ := pkt.Int(2)
			color, _ := pkt.Int(3)
			n.join(s, gun, armor, color)
			continue
		}

		c, ok := n.conns[s]
		if !ok {
			if pkt.Code == protocol.InPing {
				s.SendRaw([]byte(codec.Ping()))
			}
			continue
		}
		p := c.player

		switch pkt.Code {
		case protocol.InPing:
			p.Queue.Push(codec.Ping())
		case protocol.InMouse:
			x, okX := pkt.Float(1)
			y, okY := pkt.Float(2)
			angle, okA := pkt.Float(3)
			if okX && okY && okA {
				p.SetAim(x, y, angle)
			}
		case protocol.InKey:
			in, okIn := pkt.Int(1)
			down, okDown := pkt.Int(2)
			key, known := protocol.InputFrom(in)
			if okIn && okDown && known {
				n.queue(p, intent{kind: intentKey, input: key, down: down == 1})
			}
		case protocol.InChat:
			n.queue(p, intent{kind: intentChat, text: strings.Join(pkt.Parts[1:], string(protocol.FieldSep))})
		case protocol.InUpgrade:
			u, okU := pkt.Int(1)
			level, okL := pkt.Int(2)
			if okU && okL {
				n.queue(p, intent{kind: intentUpgrade, upgrade: entity.Upgrade(u), level: level})
			}
		}
	}
}

func (n *networkManager) queue(p *entity.Player, it intent) {
	n.intents[p.UID] = append(n.intents[p.UID], it)
}

// drain applies the inputs p queued since the last tick
func (n *networkManager) drain(p *entity.Player) {
	pending := n.intents[p.UID]
	if len(pending) == 0 {
		return
	}
	n.intents[p.UID] = pending[:0]
	if p.AwaitingRespawn {
		return
	}

	tick := n.g.tick
	for _, it := range pending {
		switch it.kind {
		case intentKey:
			p.ApplyKey(it.input, it.down, tick, n.g.cfg.NoMidPerkTimeout)
		case intentChat:
			p.SetChat(it.text)
		case intentUpgrade:
			n.upgrade(p, it.upgrade, it.level)
		}
	}
}

// upgrade installs a perk picked for a level slot. Picks for a disabled
// slot, a slot already filled or a level not yet reached are ignored.
func (n *networkManager) upgrade(p *entity.Player, u entity.Upgrade, level int) {
	cfg := n.g.cfg
	switch level {
	case 1:
		if cfg.AllowLevelOneUpgrades && p.LevelOne == entity.NoUpgrade {
			p.ApplyPrimary(u)
		}
	case 3:
		if cfg.AllowLevelThreeUpgrades && p.LevelOne != entity.NoUpgrade {
			p.ApplyPrimary(u)
		}
	case 2:
		if !cfg.AllowLevelTwoUpgrades || p.LevelTwo != nil || !u.Secondary() {
			return
		}
		a := n.g.newAbility(u, p)
		if a == nil || !p.InstallAbility(a) {
			return
		}
		if u == entity.UpgradeLandMine {
			p.NumExplosivesLeft = entity.MaxLandMines
			p.Fields.Update(entity.Change{
				States:      protocol.States(protocol.StateFirstPerson),
				FirstPerson: protocol.Fields(protocol.FPNumExplosivesLeft),
			})
		}
	}
}

func (n *networkManager) armorAllowed(a entity.Armor) bool {
	switch a {
	case entity.ArmorNone:
		return true
	case entity.ArmorLight:
		return n.g.cfg.AllowLightArmor
	case entity.ArmorMedium:
		return n.g.cfg.AllowMediumArmor
	case entity.ArmorHeavy:
		return n.g.cfg.AllowHeavyArmor
	}
	return false
}

// join creates a player for s, or respawns the player s already owns
// once its death sequence is over
func (n *networkManager) join(s Sender, gun, armor, color int) (*entity.Player, error) {
	if c, ok := n.conns[s]; ok {
		if c.player.AwaitingRespawn {
			n.respawn(c.player)
		}
		return c.player, nil
	}

	a, ok := entity.ArmorFrom(armor)
	if !ok || !n.armorAllowed(a) {
		a = entity.ArmorNone
	}
	weapon, ok := entity.GunFrom(gun)
	if !ok {
		weapon = entity.Pistol
	}
	col, ok := entity.ColorFrom(color)
	if !ok {
		col = entity.Red
	}

	p, err := n.g.players.add(weapon, a, col)
	if err != nil {
		n.log.Warn("join rejected", zap.Error(err), zap.Int("players", n.g.players.len()))
		s.SendRaw([]byte(codec.Full()))
		return nil, err
	}

	c := &connection{sender: s, player: p, session: uuid.NewString(), joinedAt: time.Now()}
	n.conns[s] = c
	n.byUID[p.UID] = c

	n.g.mode.SpawnPlayer(p)
	n.welcome(p)
	n.log.Debug("player joined", zap.Int("uid", p.UID), zap.String("session", c.session))
	n.g.session(SessionEvent{SessionID: c.session, UID: p.UID, Username: p.Username, Joined: true, At: c.joinedAt})
	return p, nil
}

func (n *networkManager) respawn(p *entity.Player) {
	p.Respawn()
	n.g.mode.SpawnPlayer(p)
	n.welcome(p)
}

var joinAux = protocol.Fields(protocol.AuxUID, protocol.AuxInvincible, protocol.AuxArmorAmount,
	protocol.AuxRadius, protocol.AuxColor)

// welcome sends a freshly spawned player the arena state and announces
// it to everyone
func (n *networkManager) welcome(p *entity.Player) {
	q := p.Queue
	q.Push(codec.Join(p, n.g.fogSize))
	for _, o := range n.g.players.list() {
		if o != p && !o.AwaitingRespawn {
			q.Push(codec.Activation(o))
		}
	}
	for _, o := range n.g.crates.list() {
		q.Push(objectPacket(o))
	}
	n.g.explosives.pairs(func(ex *entity.Explosive, el *entity.Exploding) {
		if ex.Activated {
			q.Push(codec.ExplosiveActivation(ex, el, protocol.AllExplosiveFields))
		}
	})
	q.Push(codec.GameType(n.g.mode.Name()))
	for _, sq := range n.g.mode.ScoreSquares() {
		q.Push(codec.ScoreSquare(sq.X, sq.Y, sq.W, sq.H, sq.Team))
	}
	for _, pkt := range n.g.mode.JoinPackets() {
		q.Push(pkt)
	}

	n.leaderboardDirty = true
	p.Fields.Update(entity.Change{
		States: protocol.States(protocol.StateActivation, protocol.StateAux),
		Aux:    joinAux,
	})
}

// close removes the player owned by s and frees its uid
func (n *networkManager) close(s Sender) {
	c, ok := n.conns[s]
	if !ok {
		return
	}
	p := c.player
	if p.LevelTwo != nil {
		p.LevelTwo.Deactivate(n.g.tick)
	}
	n.g.mode.ClosePlayer(p)

	delete(n.conns, s)
	delete(n.byUID, p.UID)
	delete(n.intents, p.UID)
	n.g.players.remove(p)

	n.broadcast(codec.UnloadPlayer(p.UID))
	n.broadcast(codec.Leaderboard(n.g.players.list()))
	n.log.Debug("player left", zap.Int("uid", p.UID), zap.String("session", c.session))
	n.g.session(SessionEvent{
		SessionID: c.session, UID: p.UID, Username: p.Username, At: time.Now(),
		Score: p.Score, Kills: p.Kills,
	})
}

// dispatch runs every player's state handlers and broadcasts the joined
// packets as one record batch
func (n *networkManager) dispatch() {
	tick := n.g.tick
	players := n.g.players.list()

	var b strings.Builder
	for _, p := range players {
		b.WriteString(n.statePackets(p, tick))
	}
	if b.Len() > 0 {
		n.broadcast(b.String())
	}

	if n.leaderboardDirty {
		n.leaderboardDirty = false
		n.broadcast(codec.Leaderboard(players))
		if ranked := codec.Rank(players); len(ranked) > 0 {
			n.g.mode.SetLeader(ranked[0])
		}
	}
}

// flush sends each queue as one frame and clears it. It returns the
// number of frames sent and packets dropped on full queues.
func (n *networkManager) flush() (sent, dropped int) {
	for _, p := range n.g.players.list() {
		c, ok := n.byUID[p.UID]
		if !ok {
			continue
		}
		dropped += p.Queue.Dropped()
		if p.Queue.Len() == 0 {
			continue
		}
		c.sender.SendRaw([]byte(p.Queue.Format()))
		p.Queue.Clear()
		sent++
	}
	return sent, dropped
}
