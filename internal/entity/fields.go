package entity

import "arena-server/internal/protocol"

// Change is a batch of states and fields to mark dirty
type Change struct {
	States      protocol.StateSet
	Aux         protocol.FieldSet[protocol.AuxField]
	Activation  protocol.FieldSet[protocol.ActivationField]
	FirstPerson protocol.FieldSet[protocol.FirstPersonField]
	Bullet      protocol.FieldSet[protocol.BulletField]
}

// FieldManager accumulates the dirty states and per-category fields of
// one player between broadcasts.
type FieldManager struct {
	States      protocol.StateSet
	Aux         protocol.FieldSet[protocol.AuxField]
	Activation  protocol.FieldSet[protocol.ActivationField]
	FirstPerson protocol.FieldSet[protocol.FirstPersonField]
	Bullet      protocol.FieldSet[protocol.BulletField]
}

// Update merges c into the pending sets
func (m *FieldManager) Update(c Change) {
	m.States |= c.States
	m.Aux.Merge(c.Aux)
	m.Activation.Merge(c.Activation)
	m.FirstPerson.Merge(c.FirstPerson)
	m.Bullet.Merge(c.Bullet)
}

func (m *FieldManager) RemoveState(ss ...protocol.State) {
	m.States.Remove(ss...)
}

func (m *FieldManager) ClearStates() {
	m.States = 0
}

func (m *FieldManager) ClearFields() {
	m.Aux.Clear()
	m.Activation.Clear()
	m.FirstPerson.Clear()
	m.Bullet.Clear()
}

// Cleanup applies the retention policy after a broadcast pass.
// PROTECTED keeps everything for one more tick; otherwise only the
// persistent states survive. First-person fields never survive.
func (m *FieldManager) Cleanup() {
	defer m.FirstPerson.Clear()

	if m.States.Has(protocol.StateProtected) {
		m.States.Remove(protocol.StateProtected)
		return
	}
	m.States &= protocol.PersistentStates
	m.ClearFields()
}
