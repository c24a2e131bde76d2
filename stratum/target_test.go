package stratum

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestDecodeTarget(t *testing.T) {
	for _, e := range []struct {
		wire      string
		threshold uint64
	}{
		{"01000000", math.MaxUint64 / math.MaxUint32},
		{"ffffffff", math.MaxUint64},
		{"b88d0600", math.MaxUint64 / 10000},
		{"0000000000ff0000", 0xff0000000000},
	} {
		if threshold, err := DecodeTargetHex(e.wire); err != nil {
			t.Fatal(err)
		} else if threshold != e.threshold {
			t.Errorf("%s: expected %x, got %x", e.wire, e.threshold, threshold)
		}
	}
}

func TestDecodeTargetInvalid(t *testing.T) {
	for _, wire := range []string{"00000000", "0000000000000000", "ffff", "ffffffffff", "zz000000", ""} {
		if _, err := DecodeTargetHex(wire); !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("%q: expected ErrInvalidTarget, got %v", wire, err)
		}
	}
}

func TestDecodeTargetMonotonic(t *testing.T) {
	var wire [4]byte
	var last uint64
	for t32 := uint32(1); t32 < math.MaxUint32-0x10000; t32 += 0xffff {
		binary.LittleEndian.PutUint32(wire[:], t32)
		threshold, err := DecodeTarget(wire[:])
		if err != nil {
			t.Fatal(err)
		}
		if threshold < last {
			t.Fatalf("t32 %x: threshold %x lower than previous %x", t32, threshold, last)
		}
		last = threshold
	}
}

func TestTargetHex(t *testing.T) {
	// long form round trips exactly
	target := uint64(math.MaxUint64 / 10000000)
	if s := TargetHex(target); len(s) != 16 {
		t.Fatalf("expected 8 byte target, got %s", s)
	} else if threshold, err := DecodeTargetHex(s); err != nil {
		t.Fatal(err)
	} else if threshold != target {
		t.Fatalf("expected %x, got %x", target, threshold)
	}

	// short form keeps the high 32 bits
	target = math.MaxUint64 / 10000
	s := TargetHex(target)
	if len(s) != 8 {
		t.Fatalf("expected 4 byte target, got %s", s)
	}
	threshold, err := DecodeTargetHex(s)
	if err != nil {
		t.Fatal(err)
	}
	if d := TargetDifficulty(threshold); d.Cmp64(10000) != 0 {
		t.Fatalf("expected difficulty 10000, got %s", d)
	}
}

func TestEncodeNonce(t *testing.T) {
	if s := EncodeNonce(1); s != "01000000" {
		t.Fatalf("expected 01000000, got %s", s)
	}
	if s := EncodeNonce(0xdeadbeef); s != "efbeadde" {
		t.Fatalf("expected efbeadde, got %s", s)
	}
}
