package cpu

import (
	"math/bits"
)

// Flags are the arithmetic status outputs of the ALU.
type Flags struct {
	CY bool // Carry or borrow out of bit 7.
	AC bool // Carry or borrow out of bit 3.
	OV bool // Signed overflow.
}

func bit(on bool) int {
	if on {
		return 1
	}
	return 0
}

// Add computes a+b+carry as ADD and ADDC do.
func Add(a, b uint8, carry bool) (result uint8, flags Flags) {
	c := bit(carry)
	sum := int(a) + int(b) + c
	result = uint8(sum)

	flags.CY = sum > 0xFF
	flags.AC = int(a&0x0F)+int(b&0x0F)+c > 0x0F
	into7 := int(a&0x7F)+int(b&0x7F)+c > 0x7F
	flags.OV = into7 != flags.CY
	return
}

// Subb computes a-(b+borrow) as SUBB does.
func Subb(a, b uint8, borrow bool) (result uint8, flags Flags) {
	c := bit(borrow)
	s := int(b) + c
	result = uint8(int(a) - s)

	flags.CY = int(a) < s
	flags.AC = int(a&0x0F) < s&0x0F || (borrow && b&0x0F == 0x0F)
	flags.OV = (a < 0x80 && b > 0x7F && result > 0x7F) ||
		(a > 0x7F && b < 0x80 && result < 0x80)
	return
}

// DecimalAdjust corrects a after a BCD addition. The carry is only ever set.
func DecimalAdjust(a uint8, cy bool, ac bool) (result uint8, carry bool) {
	v := int(a)
	carry = cy
	if v&0x0F > 9 || ac {
		v += 0x06
		if v > 0xFF {
			carry = true
		}
		v &= 0xFF
	}
	if v>>4 > 9 || carry {
		v += 0x60
		if v > 0xFF {
			carry = true
		}
		v &= 0xFF
	}
	result = uint8(v)
	return
}

// Mul returns the 16-bit product of a and b split into bytes.
func Mul(a, b uint8) (lo uint8, hi uint8, ov bool) {
	product := uint16(a) * uint16(b)
	lo = uint8(product)
	hi = uint8(product >> 8)
	ov = product > 0xFF
	return
}

// Div returns a/b and a%b. Division by zero reports overflow and returns
// the operands unchanged.
func Div(a, b uint8) (quotient uint8, remainder uint8, ov bool) {
	if b == 0 {
		quotient, remainder, ov = a, b, true
		return
	}
	quotient = a / b
	remainder = a % b
	return
}

// Parity is true when value has an odd number of set bits.
func Parity(value uint8) bool {
	return bits.OnesCount8(value)&1 == 1
}
