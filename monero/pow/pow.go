package pow

import (
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/stratum-miner/monero/randomx"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
)

var ErrHashCapability = errors.New("hash capability error")

type Family int

const (
	FamilyCryptoNight = Family(iota)
	FamilyRandomX
)

func (f Family) String() string {
	switch f {
	case FamilyCryptoNight:
		return "CryptoNight"
	case FamilyRandomX:
		return "RandomX"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Variant Proof of work algorithm selected by the block major version
type Variant struct {
	Family Family
	// Index CryptoNight variant number, major version - 6 for versions 7 and above
	Index int
}

// randomXMinimumIndex Variant indexes above this select RandomX
const randomXMinimumIndex = 5

// VariantFromMajorVersion Derives the algorithm from the first byte of a hashing blob
func VariantFromMajorVersion(major uint8) (v Variant) {
	if major >= 7 {
		v.Index = int(major) - 6
	}
	if v.Index > randomXMinimumIndex {
		v.Family = FamilyRandomX
	}
	return v
}

func (v Variant) IsRandomX() bool {
	return v.Family == FamilyRandomX
}

func (v Variant) String() string {
	if v.IsRandomX() {
		return "RandomX"
	}
	return fmt.Sprintf("CNv%d", v.Index)
}

// Hasher Proof of work function, pure and deterministic for fixed inputs
type Hasher interface {
	Hash(blob []byte, variant Variant, seed types.Hash, height uint64) (types.Hash, error)
}

// HasherFunc Adapts a plain function to Hasher
type HasherFunc func(blob []byte, variant Variant, seed types.Hash, height uint64) (types.Hash, error)

func (f HasherFunc) Hash(blob []byte, variant Variant, seed types.Hash, height uint64) (types.Hash, error) {
	return f(blob, variant, seed, height)
}

// DefaultHasher Dispatches RandomX jobs to a randomx.Hasher. CryptoNight variants are not available.
type DefaultHasher struct {
	rx randomx.Hasher
}

func NewDefaultHasher(rx randomx.Hasher) *DefaultHasher {
	return &DefaultHasher{
		rx: rx,
	}
}

func (h *DefaultHasher) Hash(blob []byte, variant Variant, seed types.Hash, height uint64) (types.Hash, error) {
	switch variant.Family {
	case FamilyRandomX:
		if seed == types.ZeroHash {
			return types.ZeroHash, fmt.Errorf("%w: missing seed hash at height %d", ErrHashCapability, height)
		}
		if h.rx == nil {
			return types.ZeroHash, fmt.Errorf("%w: RandomX not available", ErrHashCapability)
		}
		if digest, err := h.rx.Hash(seed[:], blob); err != nil {
			return types.ZeroHash, fmt.Errorf("%w: %w", ErrHashCapability, err)
		} else {
			return digest, nil
		}
	default:
		return types.ZeroHash, fmt.Errorf("%w: unsupported variant %s", ErrHashCapability, variant)
	}
}

func (h *DefaultHasher) Close() {
	if h.rx != nil {
		h.rx.Close()
	}
}
