package types

import (
	"bytes"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
	"math/bits"
)

var ZeroDifficulty = Difficulty(uint128.Zero)

type Difficulty uint128.Uint128

func (d Difficulty) IsZero() bool {
	return uint128.Uint128(d).IsZero()
}

func (d Difficulty) Cmp(v Difficulty) int {
	return uint128.Uint128(d).Cmp(uint128.Uint128(v))
}

func (d Difficulty) Cmp64(v uint64) int {
	return uint128.Uint128(d).Cmp64(v)
}

func (d Difficulty) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Difficulty) String() string {
	return uint128.Uint128(d).String()
}

func NewDifficulty(lo, hi uint64) Difficulty {
	return Difficulty{Lo: lo, Hi: hi}
}

func DifficultyFrom64(v uint64) Difficulty {
	return NewDifficulty(v, 0)
}

// DifficultyFromTarget Inverse of a 64-bit share target, 2^64 / target
func DifficultyFromTarget(target uint64) Difficulty {
	if target == 0 {
		return ZeroDifficulty
	}
	q, _ := uint128.New(0, 1).QuoRem64(target)
	return Difficulty(q)
}

var powBase = uint256.NewInt(0).SetBytes32(bytes.Repeat([]byte{0xff}, 32))

// DifficultyFromPoW Difficulty the given digest satisfies, read as a 256-bit little endian number
func DifficultyFromPoW(powHash Hash) Difficulty {
	if powHash == ZeroHash {
		return ZeroDifficulty
	}

	pow := uint256.NewInt(0).SetBytes32(powHash[:])
	pow = &uint256.Int{bits.ReverseBytes64(pow[3]), bits.ReverseBytes64(pow[2]), bits.ReverseBytes64(pow[1]), bits.ReverseBytes64(pow[0])}

	powResult := uint256.NewInt(0).Div(powBase, pow).Bytes32()
	return Difficulty(uint128.FromBytesBE(powResult[16:]))
}

func (d Difficulty) CheckPoW(pow Hash) bool {
	return DifficultyFromPoW(pow).Cmp(d) >= 0
}
