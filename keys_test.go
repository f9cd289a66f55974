package cuckoo

import "testing"

func TestToKeyIntegers(t *testing.T) {
	cases := []interface{}{
		uint8(7), uint16(7), uint32(7), uint64(7), uint(7),
		int8(7), int16(7), int32(7), int64(7), int(7),
	}
	for _, c := range cases {
		k, err := ToKey(c)
		if err != nil {
			t.Fatalf("ToKey(%T(%v)) error: %v", c, c, err)
		}
		if k != 7 {
			t.Fatalf("ToKey(%T(%v)) = %d, want 7", c, c, k)
		}
	}
}

func TestToKeyStringAndBytesAreDeterministic(t *testing.T) {
	k1, err := ToKey("hello")
	if err != nil {
		t.Fatalf("ToKey(string) error: %v", err)
	}
	k2, err := ToKey("hello")
	if err != nil {
		t.Fatalf("ToKey(string) error: %v", err)
	}
	if k1 != k2 {
		t.Fatal("ToKey should be deterministic for the same string")
	}

	k3, err := ToKey([]byte("hello"))
	if err != nil {
		t.Fatalf("ToKey([]byte) error: %v", err)
	}
	if k1 != k3 {
		t.Fatal("ToKey(string) and ToKey([]byte) of the same bytes should agree")
	}

	k4, _ := ToKey("world")
	if k1 == k4 {
		t.Fatal("different strings should not collide trivially")
	}
}

func TestToKeyRejectsUnsupportedTypes(t *testing.T) {
	if _, err := ToKey(3.14); err == nil {
		t.Fatal("ToKey(float64) should return an error")
	}
	if _, err := ToKey(struct{}{}); err == nil {
		t.Fatal("ToKey(struct{}) should return an error")
	}
}
