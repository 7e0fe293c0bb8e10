package flightconfig

import (
	"sort"
	"strings"
	"testing"
)

func TestConfigIDSentinels(t *testing.T) {
	var zero ConfigID
	if !zero.IsError() {
		t.Error("zero ConfigID.IsError() = false, expected true")
	}
	if zero.Valid() {
		t.Error("zero ConfigID.Valid() = true, expected false")
	}

	if DefaultValueID.IsError() {
		t.Error("DefaultValueID.IsError() = true, expected false")
	}
	if !DefaultValueID.Valid() {
		t.Error("DefaultValueID.Valid() = false, expected true")
	}
}

func TestNewConfigID(t *testing.T) {
	a := NewConfigID()
	b := NewConfigID()
	if a == b {
		t.Errorf("NewConfigID() returned the same identifier twice: %v", a)
	}
	if !a.Valid() || a == DefaultValueID {
		t.Errorf("NewConfigID() = %v, expected a valid non-sentinel identifier", a)
	}
}

func TestConfigIDTextRoundTrip(t *testing.T) {
	id := NewConfigID()

	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var reconstructed ConfigID
	if err := reconstructed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText(%q): %v", text, err)
	}
	if reconstructed != id {
		t.Errorf("round-trip = %v, expected %v", reconstructed, id)
	}

	parsed, err := ParseConfigID(string(text))
	if err != nil {
		t.Fatalf("ParseConfigID(%q): %v", text, err)
	}
	if parsed != id {
		t.Errorf("ParseConfigID = %v, expected %v", parsed, id)
	}

	if _, err := ParseConfigID("not-a-config-id"); err == nil {
		t.Error("ParseConfigID(garbage) succeeded, expected an error")
	}
}

func TestConfigIDOrder(t *testing.T) {
	ids := []ConfigID{
		{0x03}, {0x01}, {0x02}, {0x01, 0xff},
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	want := []ConfigID{{0x01}, {0x01, 0xff}, {0x02}, {0x03}}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("sorted[%d] = %v, expected %v", i, ids[i], want[i])
		}
	}

	if got := want[0].Compare(want[0]); got != 0 {
		t.Errorf("Compare(self) = %d, expected 0", got)
	}
}

func TestConfigIDText(t *testing.T) {
	id := NewConfigID()
	if !strings.HasPrefix(id.String(), "config(") {
		t.Errorf("String() = %q, expected a config(...) form", id.String())
	}
	if got := id.ShortKey(); len(got) != 8 {
		t.Errorf("ShortKey() = %q, expected 8 characters", got)
	}
}
