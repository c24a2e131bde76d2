package stratum

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
	"math"
)

var ErrInvalidTarget = errors.New("invalid target")

// DecodeTarget Expands a wire target into the threshold compared against the trailing 64 bits of a digest.
// Short 4-byte targets use the pool convention MaxUint64 / (MaxUint32 / t32), 8-byte targets are used as-is.
func DecodeTarget(wire []byte) (uint64, error) {
	switch len(wire) {
	case 4:
		t32 := binary.LittleEndian.Uint32(wire)
		if t32 == 0 {
			return 0, fmt.Errorf("%w: zero", ErrInvalidTarget)
		}
		return math.MaxUint64 / (math.MaxUint32 / uint64(t32)), nil
	case 8:
		t64 := binary.LittleEndian.Uint64(wire)
		if t64 == 0 {
			return 0, fmt.Errorf("%w: zero", ErrInvalidTarget)
		}
		return t64, nil
	default:
		return 0, fmt.Errorf("%w: unexpected size %d", ErrInvalidTarget, len(wire))
	}
}

func DecodeTargetHex(s string) (uint64, error) {
	if buf, err := hex.DecodeString(s); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	} else {
		return DecodeTarget(buf)
	}
}

// Target4BytesLimit Use short target format (4 bytes) for diff <= 4 million
const Target4BytesLimit = math.MaxUint64 / 4000001

// TargetHex Encodes a threshold back into wire format
func TargetHex(target uint64) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], target)
	result := hex.EncodeToString(buf[:])
	if target >= Target4BytesLimit {
		return result[4*2:]
	} else {
		return result
	}
}

func TargetDifficulty(target uint64) types.Difficulty {
	return types.DifficultyFromTarget(target)
}

// EncodeNonce Little endian wire form of a nonce, 8 hex characters
func EncodeNonce(nonce uint32) string {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], nonce)
	return hex.EncodeToString(buf[:])
}
