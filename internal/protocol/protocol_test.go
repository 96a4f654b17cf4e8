package protocol

import "testing"

func TestDecodeSkipsEmptyRecords(t *testing.T) {
	packets := Decode([]byte("k,1,1||m,100,200,45|"))
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if packets[0].Code != InKey {
		t.Errorf("expected code %q, got %q", InKey, packets[0].Code)
	}
	if v, ok := packets[0].Int(1); !ok || v != 1 {
		t.Errorf("expected input 1, got %d (%v)", v, ok)
	}
	if a, ok := packets[1].Float(3); !ok || a != 45 {
		t.Errorf("expected angle 45, got %v (%v)", a, ok)
	}
}

func TestPacketAccessorsOutOfRange(t *testing.T) {
	p := Packet{Code: InChat, Parts: []string{"c"}}
	if _, ok := p.Int(2); ok {
		t.Error("expected missing part to fail")
	}
	if p.Str(1) != "" {
		t.Error("expected empty string for missing part")
	}
	bad := Packet{Code: InKey, Parts: []string{"k", "abc"}}
	if _, ok := bad.Int(1); ok {
		t.Error("expected non-numeric part to fail")
	}
}

func TestFieldSetWindow(t *testing.T) {
	s := Fields(AuxUID, AuxHP)
	if got := s.Window(); got != 5 {
		t.Errorf("expected window 5, got %d", got)
	}
	s.Add(AuxUID)
	if got := s.Window(); got != 5 {
		t.Errorf("duplicate add changed window to %d", got)
	}
	s.Remove(AuxHP)
	if got := s.Window(); got != 1 {
		t.Errorf("expected window 1 after removal, got %d", got)
	}
	var empty FieldSet[AuxField]
	if empty.Window() != 0 || !empty.Empty() {
		t.Error("empty set must have zero window")
	}
}

func TestAllFieldSetsCoverSchemas(t *testing.T) {
	if AllActivationFields.Window() != int(activationFieldCount) {
		t.Errorf("activation window %d", AllActivationFields.Window())
	}
	if AllExplosiveFields.Window() != int(explosiveFieldCount) {
		t.Errorf("explosive window %d", AllExplosiveFields.Window())
	}
	if AllExplodingFields.Window() != int(explodingFieldCount) {
		t.Errorf("exploding window %d", AllExplodingFields.Window())
	}
}

func TestStateSetEachSeesHandlerAdditions(t *testing.T) {
	s := States(StateRegenerating)
	var seen []State
	s.Each(func(st State) {
		seen = append(seen, st)
		if st == StateRegenerating {
			s.Add(StateAux)
		}
	})
	if len(seen) != 2 || seen[1] != StateAux {
		t.Errorf("expected regen then aux, got %v", seen)
	}
}

func TestPersistentStates(t *testing.T) {
	for _, st := range []State{StateAux, StateActivation, StateFirstPerson, StateProtected} {
		if PersistentStates.Has(st) {
			t.Errorf("%s must not persist", st)
		}
	}
	for _, st := range []State{StateDying, StateShooting, StateShielding} {
		if !PersistentStates.Has(st) {
			t.Errorf("%s must persist", st)
		}
	}
}

func TestInputSet(t *testing.T) {
	var s InputSet
	s.Add(InputRight)
	s.Add(InputSpace)
	if !s.Has(InputRight) || !s.Has(InputSpace) || s.Has(InputLeft) {
		t.Errorf("unexpected set %08b", s)
	}
	s.Remove(InputRight)
	if s.Has(InputRight) {
		t.Error("expected right removed")
	}
	if Input(8).Valid() {
		t.Error("input 8 must be invalid")
	}
}

func TestFloatRejectsNonFinite(t *testing.T) {
	p := Packet{Code: InMouse, Parts: []string{"m", "Inf", "-Inf", "NaN", "12.5"}}
	for i := 1; i <= 3; i++ {
		if v, ok := p.Float(i); ok {
			t.Errorf("part %d: expected %q to be rejected, got %v", i, p.Parts[i], v)
		}
	}
	if v, ok := p.Float(4); !ok || v != 12.5 {
		t.Errorf("expected 12.5, got %v (%v)", v, ok)
	}
}

func TestInputFromRejectsOutOfRange(t *testing.T) {
	for _, v := range []int{-1, int(inputCount), 256, 257} {
		if in, ok := InputFrom(v); ok {
			t.Errorf("expected %d to be rejected, got %d", v, in)
		}
	}
	if in, ok := InputFrom(int(InputRight)); !ok || in != InputRight {
		t.Errorf("expected InputRight, got %d (%v)", in, ok)
	}
}
