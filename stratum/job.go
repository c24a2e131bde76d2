package stratum

import (
	"encoding/hex"
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/stratum-miner/monero/pow"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
)

var ErrProtocolParse = errors.New("protocol parse error")

// Job Immutable snapshot of mining work. A new Job supersedes the previous one wholesale.
type Job struct {
	Blob      []byte
	JobId     string
	SessionId string
	// Target Wire target bytes, see DecodeTarget
	Target   []byte
	Height   uint64
	Variant  pow.Variant
	SeedHash types.Hash
}

// JobFromParams Builds a Job from its wire fields
func JobFromParams(params *JsonRpcJobParams, sessionId string) (*Job, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: empty job", ErrProtocolParse)
	}

	blob, err := hex.DecodeString(params.Blob)
	if err != nil {
		return nil, fmt.Errorf("%w: blob: %w", ErrProtocolParse, err)
	} else if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrProtocolParse)
	}

	target, err := hex.DecodeString(params.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: target: %w", ErrProtocolParse, err)
	}

	job := &Job{
		Blob:      blob,
		JobId:     params.JobId,
		SessionId: sessionId,
		Target:    target,
		Height:    params.Height,
		Variant:   pow.VariantFromMajorVersion(blob[0]),
	}

	if job.Variant.IsRandomX() && params.SeedHash != "" {
		if job.SeedHash, err = types.HashFromString(params.SeedHash); err != nil {
			return nil, fmt.Errorf("%w: seed_hash: %w", ErrProtocolParse, err)
		}
	}

	return job, nil
}

// Threshold Expanded 64-bit comparison value of the job target
func (j *Job) Threshold() (uint64, error) {
	return DecodeTarget(j.Target)
}

func (j *Job) Difficulty() types.Difficulty {
	if threshold, err := j.Threshold(); err != nil {
		return types.ZeroDifficulty
	} else {
		return TargetDifficulty(threshold)
	}
}

func (j *Job) String() string {
	return fmt.Sprintf("job %s, target %s (difficulty %s), %s, height %d", j.JobId, hex.EncodeToString(j.Target), j.Difficulty(), j.Variant, j.Height)
}

// Submission Share found for a Job, sent once and never retried
type Submission struct {
	SessionId string
	JobId     string
	Nonce     uint32
	Result    types.Hash
}
