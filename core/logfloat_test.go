package core

import (
	"math"
	"testing"
)

// maxRelErr is the format's designed precision: 9 fractional log bits give
// roughly 0.4% worst-case relative error, plus one ULP from the final
// truncation.
func withinTolerance(got, want uint32) bool {
	var diff uint64
	if got > want {
		diff = uint64(got - want)
	} else {
		diff = uint64(want - got)
	}
	return diff <= uint64(want)/250+1
}

func TestLogFromZero(t *testing.T) {
	if LogFromU8(0) != LogZero {
		t.Errorf("LogFromU8(0): expected LogZero, got %#x", uint16(LogFromU8(0)))
	}
	if LogFromU16(0) != LogZero {
		t.Errorf("LogFromU16(0): expected LogZero, got %#x", uint16(LogFromU16(0)))
	}
	if LogFromU32(0) != LogZero {
		t.Errorf("LogFromU32(0): expected LogZero, got %#x", uint16(LogFromU32(0)))
	}
}

func TestLogOne(t *testing.T) {
	if LogFromU32(1) != 0 {
		t.Errorf("expected log of 1 to be 0, got %d", LogFromU32(1))
	}
	if got := LogFloat(0).ToU16(); got != 1 {
		t.Errorf("expected antilog of 0 to be 1, got %d", got)
	}
}

func TestRoundTripU16(t *testing.T) {
	for x := uint32(1); x <= 0xffff; x++ {
		got := uint32(LogFromU16(uint16(x)).ToU16())
		if !withinTolerance(got, x) {
			t.Fatalf("round trip %d: got %d", x, got)
		}
	}
}

func TestRoundTripU32(t *testing.T) {
	cases := []uint32{
		1, 2, 3, 255, 256, 257, 65535, 65536, 65537,
		100000, 1000000, 16000000, 0x00ffffff, 0x01000000,
		0x12345678, 0x80000000, 0xfffffffe, 0xffffffff,
	}
	for _, x := range cases {
		got := LogFromU32(x).ToU32()
		if !withinTolerance(got, x) {
			t.Errorf("round trip %d: got %d", x, got)
		}
	}
}

func TestConversionMonotonic(t *testing.T) {
	prev := LogFromU16(1)
	for x := uint32(2); x <= 0xffff; x++ {
		cur := LogFromU16(uint16(x))
		if cur < prev {
			t.Fatalf("LogFromU16 not monotonic at %d: %d < %d", x, cur, prev)
		}
		prev = cur
	}
}

func TestMultiply(t *testing.T) {
	cases := []struct{ a, b uint32 }{
		{2, 3}, {10, 10}, {255, 255}, {1000, 1000},
		{12345, 6789}, {65535, 65535}, {1, 4000000},
	}
	for _, c := range cases {
		got := LogFromU32(c.a).Mul(LogFromU32(c.b)).ToU32()
		want := uint64(c.a) * uint64(c.b)
		if want > 0xffffffff {
			want = 0xffffffff
		}
		if !withinTolerance(got, uint32(want)) {
			t.Errorf("%d * %d: expected ~%d, got %d", c.a, c.b, want, got)
		}
	}
}

func TestDivide(t *testing.T) {
	cases := []struct{ a, b uint32 }{
		{6, 3}, {1000000, 1000}, {65535, 255}, {16000000, 44721},
	}
	for _, c := range cases {
		got := LogFromU32(c.a).Div(LogFromU32(c.b)).ToU32()
		want := c.a / c.b
		if !withinTolerance(got, want) {
			t.Errorf("%d / %d: expected ~%d, got %d", c.a, c.b, want, got)
		}
	}
}

func TestSquare(t *testing.T) {
	for _, a := range []uint32{2, 17, 255, 256, 1000, 40000, 65535} {
		got := LogFromU32(a).Square().ToU32()
		want := uint64(a) * uint64(a)
		if want > 0xffffffff {
			want = 0xffffffff
		}
		if !withinTolerance(got, uint32(want)) {
			t.Errorf("square(%d): expected ~%d, got %d", a, want, got)
		}
	}
}

func TestSquareSaturates(t *testing.T) {
	if got := LogFloat(0x4000).Square(); got != logFloatMax {
		t.Errorf("expected positive saturation, got %#x", uint16(got))
	}
	if got := LogFloat(0x7123).Square(); got != logFloatMax {
		t.Errorf("expected positive saturation, got %#x", uint16(got))
	}
	if got := LogFloat(-0x4000).Square(); got != logFloatMin {
		t.Errorf("expected negative saturation, got %#x", uint16(got))
	}
}

func TestReciprocalTwiceIsIdentity(t *testing.T) {
	for _, a := range []uint32{1, 2, 255, 65535, 4000000} {
		l := LogFromU32(a)
		if l.Reciprocal().Reciprocal() != l {
			t.Errorf("reciprocal(reciprocal(%d)) changed the encoding", a)
		}
	}
}

func TestRSqrt(t *testing.T) {
	// sqrt(x) recovered as 1/rsqrt(x)
	for _, a := range []uint32{4, 100, 2000, 65536, 1000000, 4000000000} {
		got := LogFromU32(a).RSqrt().Reciprocal().ToU32()
		want := uint32(math.Sqrt(float64(a)))
		if !withinTolerance(got, want) {
			t.Errorf("sqrt(%d): expected ~%d, got %d", a, want, got)
		}
	}
}

func TestRSquare(t *testing.T) {
	// 1/(x*x) scaled back up by x^2 must be ~1
	for _, a := range []uint32{3, 100, 250} {
		l := LogFromU32(a)
		got := l.RSquare().Mul(l).Mul(l).ToU16()
		if got != 1 {
			t.Errorf("rsquare(%d) * %d^2: expected 1, got %d", a, a, got)
		}
	}
}

func TestShift(t *testing.T) {
	for _, n := range []uint8{1, 4, 10} {
		got := LogFromU32(1000).Shl(n).ToU32()
		want := uint32(1000) << n
		if !withinTolerance(got, want) {
			t.Errorf("1000 << %d: expected ~%d, got %d", n, want, got)
		}
		got = LogFromU32(1000000).Shr(n).ToU32()
		want = uint32(1000000) >> n
		if !withinTolerance(got, want) {
			t.Errorf("1000000 >> %d: expected ~%d, got %d", n, want, got)
		}
	}
}

func TestToU16Saturation(t *testing.T) {
	if got := LogFloat(-1).ToU16(); got != 0 {
		t.Errorf("negative log: expected 0, got %d", got)
	}
	if got := LogZero.ToU16(); got != 0 {
		t.Errorf("LogZero: expected 0, got %d", got)
	}
	if got := LogFloat(0x2000).ToU16(); got != 0xffff {
		t.Errorf("at 2^16: expected 0xffff, got %#x", got)
	}
	if got := LogFloat(0x7fff).ToU16(); got != 0xffff {
		t.Errorf("max: expected 0xffff, got %#x", got)
	}
}

func TestToU32Saturation(t *testing.T) {
	if got := LogFloat(-1).ToU32(); got != 0 {
		t.Errorf("negative log: expected 0, got %d", got)
	}
	if got := LogFloat(0x4000).ToU32(); got != 0xffffffff {
		t.Errorf("at 2^32: expected 0xffffffff, got %#x", got)
	}
}

func TestWidthConsistency(t *testing.T) {
	// All three conversion widths must agree on shared inputs.
	for x := uint32(1); x <= 0xff; x++ {
		a := LogFromU8(uint8(x))
		b := LogFromU16(uint16(x))
		c := LogFromU32(x)
		if a != b || b != c {
			t.Fatalf("width mismatch at %d: %d / %d / %d", x, a, b, c)
		}
	}
	for x := uint32(0x100); x <= 0xffff; x += 0x101 {
		if LogFromU16(uint16(x)) != LogFromU32(x) {
			t.Fatalf("width mismatch at %d", x)
		}
	}
}
