//go:build cgo && !disable_randomx_library

package randomx

import (
	"bytes"
	"errors"
	"git.gammaspectra.live/P2Pool/randomx-go-bindings"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
	"runtime"
	"sync"
)

type hasher struct {
	lock sync.Mutex

	dataset *randomx.RxDataset
	vm      *randomx.RxVM
	key     []byte
}

// NewRandomX Full memory hasher. A single dataset of about 2 GiB is allocated on first use and
// re-initialized whenever the key changes, so cachedStates is not used here.
func NewRandomX(cachedStates int) Hasher {
	return &hasher{}
}

func (h *hasher) Hash(key []byte, input []byte) (output types.Hash, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.dataset == nil {
		if h.dataset, err = randomx.NewRxDataset(randomx.FlagJIT); err != nil {
			h.dataset = nil
			return types.ZeroHash, err
		}
	}

	if h.vm == nil || bytes.Compare(h.key, key) != 0 {
		if h.vm != nil {
			h.vm.Close()
			h.vm = nil
		}
		h.key = nil

		if h.dataset.GoInit(key, uint32(runtime.NumCPU())) == false {
			return types.ZeroHash, errors.New("could not initialize dataset")
		}

		if h.vm, err = randomx.NewRxVM(h.dataset, randomx.FlagFullMEM, randomx.FlagHardAES, randomx.FlagJIT, randomx.FlagSecure); err != nil {
			h.vm = nil
			return types.ZeroHash, err
		}
		h.key = bytes.Clone(key)
	}

	copy(output[:], h.vm.CalcHash(input))
	return
}

func (h *hasher) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.vm != nil {
		h.vm.Close()
		h.vm = nil
	}
	if h.dataset != nil {
		h.dataset.Close()
		h.dataset = nil
	}
	h.key = nil
}
