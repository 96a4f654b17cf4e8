package game

import (
	"maps"
	"slices"

	"arena-server/internal/codec"
	"arena-server/internal/entity"
	"arena-server/internal/protocol"
	"arena-server/internal/spatial"
)

const crateCellSize = 250

var (
	staticObjectFields = protocol.Fields(protocol.ObjUID, protocol.ObjType, protocol.ObjX, protocol.ObjY,
		protocol.ObjAngle)
	placedObjectFields = protocol.Fields(protocol.ObjUID, protocol.ObjType, protocol.ObjX, protocol.ObjY,
		protocol.ObjAngle, protocol.ObjParentID)
	userCrateFields = protocol.Fields(protocol.ObjUID, protocol.ObjType, protocol.ObjX, protocol.ObjY,
		protocol.ObjAngle, protocol.ObjParentID, protocol.ObjHP, protocol.ObjMaxHP)
	flagFields = protocol.Fields(protocol.ObjUID, protocol.ObjType, protocol.ObjX, protocol.ObjY,
		protocol.ObjAngle, protocol.ObjParentID, protocol.ObjTeam)
)

// crateManager owns every placed map object. Uids come from a counter
// that is never rewound, so a removed object's uid is never reissued.
type crateManager struct {
	a       arena
	nextUID int
	objects map[int]*entity.MapObject
	grid    *spatial.Grid[*entity.MapObject]
}

func newCrateManager(a arena) *crateManager {
	return &crateManager{
		a:       a,
		objects: make(map[int]*entity.MapObject),
		grid:    spatial.NewGrid[*entity.MapObject](crateCellSize),
	}
}

func (m *crateManager) nextID() int {
	uid := m.nextUID
	m.nextUID++
	return uid
}

// load places the static crates of a layout
func (m *crateManager) load(l Layout) {
	for _, c := range l {
		kind := entity.KindCrate
		if c.Type == layoutLongCrate {
			kind = entity.KindLongCrate
		}
		m.add(entity.NewCrate(m.nextID(), kind, c.X, c.Y, c.Angle))
	}
}

func (m *crateManager) add(o *entity.MapObject) {
	m.objects[o.UID] = o
	m.grid.Insert(o)
}

func (m *crateManager) addFlag(team int, x, y float64) *entity.MapObject {
	f := entity.NewFlag(m.nextID(), team, x, y)
	m.add(f)
	return f
}

// remove unloads o on every client; unknown objects are ignored
func (m *crateManager) remove(o *entity.MapObject) {
	if _, ok := m.objects[o.UID]; !ok {
		return
	}
	delete(m.objects, o.UID)
	m.grid.Remove(o)
	m.a.broadcast(codec.UnloadObject(o.UID))
}

func (m *crateManager) move(o *entity.MapObject, x, y float64) {
	oldX, oldY := o.X, o.Y
	o.X, o.Y = x, y
	if _, ok := m.objects[o.UID]; ok {
		m.grid.Update(o, oldX, oldY)
	}
}

func (m *crateManager) get(uid int) (*entity.MapObject, bool) {
	o, ok := m.objects[uid]
	return o, ok
}

func (m *crateManager) near(x, y, r float64) []*entity.MapObject {
	return m.grid.Query(x, y, r)
}

// list returns the objects in uid order
func (m *crateManager) list() []*entity.MapObject {
	out := make([]*entity.MapObject, 0, len(m.objects))
	for _, uid := range slices.Sorted(maps.Keys(m.objects)) {
		out = append(out, m.objects[uid])
	}
	return out
}

func (m *crateManager) len() int { return len(m.objects) }

// update expires TTL objects and re-broadcasts the dynamic ones
func (m *crateManager) update() {
	tick := m.a.tickNow()
	for _, o := range m.list() {
		if o.Expired(tick) {
			m.remove(o)
			continue
		}
		if o.Dynamic() {
			m.a.broadcast(objectPacket(o))
		}
	}
}

// objectPacket builds the load record a client needs for o
func objectPacket(o *entity.MapObject) string {
	switch o.Kind {
	case entity.KindUserCrate:
		fields := userCrateFields
		if o.IsPremium {
			fields.Add(protocol.ObjIsPremium)
		}
		return codec.Object(o, fields)
	case entity.KindShield, entity.KindMedKit:
		return codec.Object(o, placedObjectFields)
	case entity.KindFlag:
		return codec.Object(o, flagFields)
	}
	return codec.Object(o, staticObjectFields)
}
