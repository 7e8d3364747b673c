package common

import (
	"encoding/hex"
	"strings"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 32
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
	if strings.ToLower(s) != s {
		t.Fatalf("expected lowercase hex, got %q", s)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestMakeRandHexString_EntropyHint(t *testing.T) {
	a, _ := MakeRandHexString(32)
	b, _ := MakeRandHexString(32)
	if a == b {
		t.Logf("warning: two MakeRandHexString(32) results are identical; extremely unlikely")
	}
}

// ---------- MakeRandBase64String ----------

func TestMakeRandBase64String_AlphabetAndLength(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for _, n := range []int{1, 4, 8, 16} {
		for i := 0; i < 200; i++ {
			s, err := MakeRandBase64String(n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(s) != n {
				t.Fatalf("expected length %d, got %d (%q)", n, len(s), s)
			}
			for _, r := range s {
				if !strings.ContainsRune(alphabet, r) {
					t.Fatalf("unexpected rune %q in %q", r, s)
				}
			}
		}
	}
}

func TestMakeRandBase64String_ZeroLength(t *testing.T) {
	s, err := MakeRandBase64String(0)
	if err != nil || s != "" {
		t.Fatalf("expected empty result, got (%q, %v)", s, err)
	}
}
