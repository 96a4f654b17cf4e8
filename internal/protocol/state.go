package protocol

// State is a pending per-player packet category or state-machine marker
type State uint8

// Dispatch order: state-machine handlers run before the emitters so the
// flags they raise are encoded in the same tick.
const (
	StateDying State = iota
	StateRegenerating
	StateShooting
	StateReloading
	StateDashing
	StateShielding
	StateAux
	StateActivation
	StateUnload
	StateBulletActivation
	StateFirstPerson
	StateProtected
	stateCount
)

var stateNames = [stateCount]string{
	"dying", "regenerating", "shooting", "reloading", "dashing", "shielding",
	"aux", "activation", "unload", "bullet_activation", "first_person", "protected",
}

func (s State) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return "unknown"
}

// StateSet is a deduplicated set of states
type StateSet uint16

// PersistentStates survive cleanup without PROTECTED
const PersistentStates = StateSet(1<<StateDying | 1<<StateRegenerating | 1<<StateShooting |
	1<<StateReloading | 1<<StateDashing | 1<<StateShielding)

func States(ss ...State) StateSet {
	var set StateSet
	for _, s := range ss {
		set |= 1 << s
	}
	return set
}

func (s StateSet) Has(st State) bool { return s&(1<<st) != 0 }
func (s StateSet) Empty() bool       { return s == 0 }

func (s *StateSet) Add(ss ...State) {
	for _, st := range ss {
		*s |= 1 << st
	}
}

func (s *StateSet) Remove(ss ...State) {
	for _, st := range ss {
		*s &^= 1 << st
	}
}

// Each calls fn for every member in dispatch order. Members added or
// removed by fn are observed by later iterations.
func (s *StateSet) Each(fn func(State)) {
	for st := State(0); st < stateCount; st++ {
		if s.Has(st) {
			fn(st)
		}
	}
}
