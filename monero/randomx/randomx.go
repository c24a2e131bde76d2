package randomx

import (
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
)

// Hasher Computes RandomX digests for input under key, the seed hash of the job
type Hasher interface {
	Hash(key []byte, input []byte) (types.Hash, error)
	Close()
}

// DefaultCachedStates Current and previous epoch, pools switch seeds at epoch boundaries.
// Only light (pure Go) states are cached, the full dataset build keeps a single one.
const DefaultCachedStates = 2
