package game

// uidPool hands out the lowest free integer in [min, max]
type uidPool struct {
	min, max int
	taken    []bool
	count    int
}

func newUIDPool(min, max int) *uidPool {
	return &uidPool{min: min, max: max, taken: make([]bool, max-min+1)}
}

// Acquire reserves the lowest free uid; ok is false when the pool is exhausted
func (p *uidPool) Acquire() (uid int, ok bool) {
	for i, t := range p.taken {
		if !t {
			p.taken[i] = true
			p.count++
			return p.min + i, true
		}
	}
	return 0, false
}

// Release makes uid immediately available again
func (p *uidPool) Release(uid int) {
	if uid < p.min || uid > p.max || !p.taken[uid-p.min] {
		return
	}
	p.taken[uid-p.min] = false
	p.count--
}

func (p *uidPool) Taken(uid int) bool {
	return uid >= p.min && uid <= p.max && p.taken[uid-p.min]
}

func (p *uidPool) Len() int { return p.count }
