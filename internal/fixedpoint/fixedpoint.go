package fixedpoint

import "math/big"

// Q112 is 2**112, the scaling factor of the UQ112x112 fixed point format used by
// the pair price accumulators.
var Q112 = new(big.Int).Lsh(big.NewInt(1), 112)

// MaxUint112 bounds pair reserves; balances above it overflow the reserve slots.
var MaxUint112 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))

// Encode returns y as a UQ112x112, i.e. y * 2**112.
func Encode(y *big.Int) *big.Int {
	return new(big.Int).Mul(y, Q112)
}

// UQDiv divides a UQ112x112 by a plain integer, staying in UQ112x112.
func UQDiv(x, y *big.Int) *big.Int {
	return new(big.Int).Div(x, y)
}

// Sqrt returns the integer square root of y (floor).
func Sqrt(y *big.Int) *big.Int {
	return new(big.Int).Sqrt(y)
}

// Min returns the smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Elapsed32 computes now - last over uint32 timestamps. The subtraction is
// performed modulo 2**32 so the accumulators keep working across the wrap.
func Elapsed32(now, last uint32) uint32 {
	return now - last
}
