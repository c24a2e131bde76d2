package miner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedBlob = errors.New("malformed blob")

type NonceMode int

const (
	// NonceModeStandard Full 4-byte nonce at NonceOffset
	NonceModeStandard = NonceMode(iota)
	// NonceModeRestricted Only the lower 3 bytes are written, the fourth byte is assigned by the pool (NiceHash)
	NonceModeRestricted
)

const (
	NonceOffset = 39
	NonceSize   = 4
	// restrictedNonceSize Bytes of the nonce controlled by the miner in NonceModeRestricted
	restrictedNonceSize = 3
)

func (m NonceMode) String() string {
	switch m {
	case NonceModeStandard:
		return "standard"
	case NonceModeRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("NonceMode(%d)", int(m))
	}
}

func NonceModeFromString(s string) (NonceMode, error) {
	switch strings.ToLower(s) {
	case "standard", "":
		return NonceModeStandard, nil
	case "restricted", "nicehash":
		return NonceModeRestricted, nil
	default:
		return 0, fmt.Errorf("unknown nonce mode %q", s)
	}
}

// minimumBlobSize Needed to encode. Submitting a restricted share also reads back the pool byte at NonceOffset+3.
func (m NonceMode) minimumBlobSize() int {
	if m == NonceModeRestricted {
		return NonceOffset + restrictedNonceSize
	}
	return NonceOffset + NonceSize
}

// EncodeNonce Writes nonce into a copy of blob, appending to dst. The output always has the length of blob.
func EncodeNonce(dst, blob []byte, nonce uint32, mode NonceMode) ([]byte, error) {
	if len(blob) < mode.minimumBlobSize() {
		return nil, fmt.Errorf("%w: size %d, need at least %d", ErrMalformedBlob, len(blob), mode.minimumBlobSize())
	}

	var nonceBuf [NonceSize]byte
	binary.LittleEndian.PutUint32(nonceBuf[:], nonce)

	dst = append(dst, blob[:NonceOffset]...)
	if mode == NonceModeRestricted {
		dst = append(dst, nonceBuf[:restrictedNonceSize]...)
		dst = append(dst, blob[NonceOffset+restrictedNonceSize:]...)
	} else {
		dst = append(dst, nonceBuf[:]...)
		dst = append(dst, blob[NonceOffset+NonceSize:]...)
	}
	return dst, nil
}

// DecodeNonce Reads back the full nonce as it will be hashed, including any pool assigned byte
func DecodeNonce(encoded []byte) (uint32, error) {
	if len(encoded) < NonceOffset+NonceSize {
		return 0, fmt.Errorf("%w: size %d, need at least %d", ErrMalformedBlob, len(encoded), NonceOffset+NonceSize)
	}
	return binary.LittleEndian.Uint32(encoded[NonceOffset:]), nil
}
