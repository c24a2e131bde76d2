//go:build !cgo || disable_randomx_library

package randomx

import (
	"git.gammaspectra.live/P2Pool/go-randomx"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
	"github.com/floatdrop/lru"
	"sync"
)

type state struct {
	cache *randomx.Randomx_Cache
	vm    *randomx.VM
}

func newState(key []byte) *state {
	s := &state{
		cache: randomx.Randomx_alloc_cache(0),
	}
	s.cache.Randomx_init_cache(key)

	gen := randomx.Init_Blake2Generator(key, 0)
	for i := 0; i < 8; i++ {
		s.cache.Programs[i] = randomx.Build_SuperScalar_Program(gen)
	}
	s.vm = s.cache.VM_Initialize()
	return s
}

type hasher struct {
	lock   sync.Mutex
	states *lru.LRU[string, *state]
	// built Number of states initialized, including rebuilds after eviction
	built int
}

// NewRandomX Light mode hasher keeping up to cachedStates initialized caches, keyed by seed
func NewRandomX(cachedStates int) Hasher {
	if cachedStates < 1 {
		cachedStates = DefaultCachedStates
	}
	return &hasher{
		states: lru.New[string, *state](cachedStates),
	}
}

func (h *hasher) Hash(key []byte, input []byte) (output types.Hash, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	var s *state
	if e := h.states.Get(string(key)); e != nil {
		s = *e
	} else {
		s = newState(key)
		h.built++
		// evicted light states are left to the garbage collector
		h.states.Set(string(key), s)
	}

	outputBuf := make([]byte, types.HashSize)
	s.vm.CalculateHash(input, outputBuf)
	copy(output[:], outputBuf)
	return
}

func (h *hasher) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.states = lru.New[string, *state](1)
}
