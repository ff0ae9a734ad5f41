package core

import "math/bits"

// LogFloat is a 16-bit logarithmic fixed point number: log2(value) * 512,
// i.e. 9 fractional bits of base-2 logarithm. It replaces floating point for
// the multiply/divide/square/square-root operations the ramp math needs.
// Every arithmetic primitive is plain integer addition or subtraction, so it
// runs in constant time without a hardware FPU.
//
// Only positive values are representable. Zero is encoded by the LogZero
// sentinel and must not be fed into arithmetic; callers guard against it.
type LogFloat int16

// LogZero is the encoding returned for the input value zero. It stands for
// "negative infinity" in log space and is only valid as a conversion result,
// never as an arithmetic operand.
const LogZero LogFloat = -0x8000

const (
	logFloatMax LogFloat = 0x7fff
	logFloatMin LogFloat = -0x7fff
)

// LogFromU8 converts an 8-bit unsigned integer to log space.
//
// The value is normalized so that the bits below the most significant set
// bit form an 8-bit mantissa window. The mantissa indexes the correction
// table and the bit position becomes the integer part of the logarithm.
func LogFromU8(x uint8) LogFloat {
	if x == 0 {
		return LogZero
	}
	exponent := uint16(bits.Len8(x) - 1)
	// 0000_0eee_mmmm_mmmm with the leading 1 shifted out of the mantissa
	res := (uint16(x) << (8 - exponent) & 0x00ff) | exponent<<8
	index := uint8(res)
	res <<= 1
	res += uint16(log2Correction[index])
	return LogFloat(res)
}

// LogFromU16 converts a 16-bit unsigned integer to log space.
func LogFromU16(x uint16) LogFloat {
	if x&0xff00 == 0 {
		return LogFromU8(uint8(x))
	}
	exponent := uint16(bits.Len16(x) - 1)
	// Normalize to a 10-bit window: leading 1 at bit 9, one extra
	// fractional bit below the 8-bit table index.
	var m uint16
	if exponent >= 9 {
		m = x >> (exponent - 9)
	} else {
		m = x << (9 - exponent)
	}
	index := uint8(m >> 1)
	m += uint16(log2Correction[index])
	m -= 0x200
	m += exponent << 9
	return LogFloat(m)
}

// LogFromU32 converts a 32-bit unsigned integer to log space. Wider inputs
// reduce to the 16-bit path; each dropped byte adds a constant 0x1000
// exponent bias (8 * 512).
func LogFromU32(x uint32) LogFloat {
	if x&0xffff0000 == 0 {
		return LogFromU16(uint16(x))
	}
	if x&0xff000000 == 0 {
		return LogFromU16(uint16(x>>8)) + 0x1000
	}
	return LogFromU16(uint16(x>>16)) + 0x2000
}

// ToU16 converts back to a 16-bit unsigned integer via the antilog table.
// Out-of-range values saturate: negative logs (value < 1) return 0, values
// at or above 2^16 return 0xffff.
func (x LogFloat) ToU16() uint16 {
	if x < 0 {
		return 0
	}
	if x >= 0x2000 {
		return 0xffff
	}
	exponent := uint16(x) >> 9
	m := uint16(x) & 0x01ff
	index := uint8(m >> 1)
	m += 0x200
	m -= uint16(pow2Correction[index])
	if exponent > 9 {
		m <<= exponent - 9
	} else if exponent < 9 {
		m++
		m >>= 9 - exponent
	}
	return m
}

// ToU32 converts back to a 32-bit unsigned integer. Saturates like ToU16,
// with 0xffffffff at or above 2^32.
func (x LogFloat) ToU32() uint32 {
	if x < 0 {
		return 0
	}
	if x >= 0x4000 {
		return 0xffffffff
	}
	exponent := uint16(x) >> 9
	if exponent < 0x10 {
		return uint32(x.ToU16())
	}
	shift := uint8(exponent - 0x0f)
	return uint32(x.Shr(shift).ToU16()) << shift
}

// Mul multiplies two values: addition in log space, exact.
func (x LogFloat) Mul(y LogFloat) LogFloat { return x + y }

// Div divides x by y: subtraction in log space, exact.
func (x LogFloat) Div(y LogFloat) LogFloat { return x - y }

// Reciprocal returns 1/x: negation in log space, exact.
func (x LogFloat) Reciprocal() LogFloat { return -x }

// Square returns x*x, saturating at the format extremes instead of
// wrapping on the doubling.
func (x LogFloat) Square() LogFloat {
	if x >= 0x4000 {
		return logFloatMax
	}
	if x <= -0x4000 {
		return logFloatMin
	}
	return x + x
}

// RSquare returns 1/(x*x).
func (x LogFloat) RSquare() LogFloat { return x.Square().Reciprocal() }

// RSqrt returns 1/sqrt(x). The halving truncates toward zero (Go integer
// division), matching the reference behavior on all targets.
func (x LogFloat) RSqrt() LogFloat { return -x / 2 }

// Shl multiplies by 2^n.
func (x LogFloat) Shl(n uint8) LogFloat { return x + LogFloat(n)<<9 }

// Shr divides by 2^n.
func (x LogFloat) Shr(n uint8) LogFloat { return x - LogFloat(n)<<9 }
