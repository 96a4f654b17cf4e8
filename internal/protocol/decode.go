package protocol

import (
	"math"
	"strconv"
	"strings"
)

// Packet is one decoded inbound record. Parts[0] is the code.
type Packet struct {
	Code  string
	Parts []string
}

// Decode splits a frame into records; empty records are skipped
func Decode(frame []byte) []Packet {
	chunks := strings.Split(string(frame), string(RecordSep))
	out := make([]Packet, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk == "" {
			continue
		}
		parts := strings.Split(chunk, string(FieldSep))
		out = append(out, Packet{Code: parts[0], Parts: parts})
	}
	return out
}

// Int returns part i parsed as an integer
func (p Packet) Int(i int) (int, bool) {
	if i >= len(p.Parts) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(p.Parts[i]))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Float returns part i parsed as a finite float
func (p Packet) Float(i int) (float64, bool) {
	if i >= len(p.Parts) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.Parts[i]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Str returns part i or "" when absent
func (p Packet) Str(i int) string {
	if i >= len(p.Parts) {
		return ""
	}
	return p.Parts[i]
}
