package fixed

import (
	"testing"
)

func Test_PointArithmetic(t *testing.T) {
	a := FromInt(12345, 2) // 123.45
	b := FromInt(6789, 2)  // 67.89

	expectedAdd := MustParse("191.34")
	expectedSub := MustParse("55.56")
	expectedMul := MustParse("8381.0205")

	if res := a.Add(b); !res.Eq(expectedAdd) {
		t.Errorf("Add failed: got %v, want %v", res.String(), expectedAdd.String())
	}
	if res := a.Sub(b); !res.Eq(expectedSub) {
		t.Errorf("Sub failed: got %v, want %v", res.String(), expectedSub.String())
	}
	if res := a.Mul(b); !res.Eq(expectedMul) {
		t.Errorf("Mul failed: got %v, want %v", res.String(), expectedMul.String())
	}
}

func Test_PointIntOps(t *testing.T) {
	a := FromInt(10000, 2) // 100.00

	if res := a.MulInt64(3); !res.Eq(MustParse("300")) {
		t.Errorf("MulInt64 failed: got %v", res.String())
	}
	if res := a.DivInt64(4); !res.Eq(MustParse("25")) {
		t.Errorf("DivInt64 failed: got %v", res.String())
	}
}

func Test_PointComparison(t *testing.T) {
	a := FromInt(5000, 2)
	b := FromInt(7500, 2)
	c := FromInt(5000, 2)

	if !a.Lt(b) {
		t.Errorf("Expected a < b")
	}
	if !b.Gt(a) {
		t.Errorf("Expected b > a")
	}
	if !a.Eq(c) {
		t.Errorf("Expected a == c")
	}
	if !a.Lte(c) || !a.Gte(c) {
		t.Errorf("Expected a <= c and a >= c")
	}
}

func Test_PointSigns(t *testing.T) {
	pos := MustParse("0.5")
	neg := MustParse("-0.5")

	if !pos.IsPos() || pos.IsNeg() || pos.IsZero() {
		t.Errorf("Sign checks failed for %v", pos.String())
	}
	if !neg.IsNeg() || neg.IsPos() {
		t.Errorf("Sign checks failed for %v", neg.String())
	}
	if !neg.Abs().Eq(pos) {
		t.Errorf("Abs failed: got %v", neg.Abs().String())
	}
	if !pos.Neg().Eq(neg) {
		t.Errorf("Neg failed: got %v", pos.Neg().String())
	}
}

func Test_PointClamp(t *testing.T) {
	lo := MustParse("0.001")
	hi := MustParse("0.10")

	if res := Clamp(MustParse("0.0001"), lo, hi); !res.Eq(lo) {
		t.Errorf("Clamp below failed: got %v", res.String())
	}
	if res := Clamp(MustParse("0.5"), lo, hi); !res.Eq(hi) {
		t.Errorf("Clamp above failed: got %v", res.String())
	}
	if res := Clamp(MustParse("0.05"), lo, hi); !res.Eq(MustParse("0.05")) {
		t.Errorf("Clamp inside failed: got %v", res.String())
	}
}

func Test_PointMinMax(t *testing.T) {
	a := MustParse("1.5")
	b := MustParse("2.5")

	if res := Min(a, b); !res.Eq(a) {
		t.Errorf("Min failed: got %v", res.String())
	}
	if res := Max(a, b); !res.Eq(b) {
		t.Errorf("Max failed: got %v", res.String())
	}
}

func Test_PointTextRoundTrip(t *testing.T) {
	a := MustParse("0.1234")

	data, err := a.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var b Point
	if err := b.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if !a.Eq(b) {
		t.Errorf("Round trip mismatch: got %v, want %v", b.String(), a.String())
	}
}

func Test_PointSqrt(t *testing.T) {
	if res := MustParse("0.04").Sqrt(); !res.Eq(MustParse("0.2")) {
		t.Errorf("Sqrt failed: got %v", res.String())
	}
}
