package miner

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/stratum-miner/monero/pow"
	"git.gammaspectra.live/P2Pool/stratum-miner/stratum"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
	"git.gammaspectra.live/P2Pool/stratum-miner/utils"
	"sync/atomic"
	"time"
)

var ErrNonceSpaceExhausted = errors.New("nonce space exhausted")

const DefaultSubmitWait = time.Second * 3

// Submitter Outbound path for found shares
type Submitter interface {
	Submit(s *stratum.Submission) error
}

type Config struct {
	Mode NonceMode
	// SubmitWait How long to wait for a newer job after submitting a share before continuing the current one
	SubmitWait time.Duration
	// ReportInterval Period of hashrate log lines, 0 disables them
	ReportInterval time.Duration
}

type Miner struct {
	config    Config
	jobs      *JobChannel
	hasher    pow.Hasher
	submitter Submitter

	hashrate *HashrateCounter
	found    atomic.Uint64
	current  atomic.Pointer[stratum.Job]
}

func NewMiner(config Config, jobs *JobChannel, hasher pow.Hasher, submitter Submitter) *Miner {
	if config.SubmitWait <= 0 {
		config.SubmitWait = DefaultSubmitWait
	}
	return &Miner{
		config:    config,
		jobs:      jobs,
		hasher:    hasher,
		submitter: submitter,
		hashrate:  NewHashrateCounter(time.Now()),
	}
}

func (m *Miner) Hashrate() *HashrateCounter {
	return m.hashrate
}

// Found Number of shares handed to the submitter
func (m *Miner) Found() uint64 {
	return m.found.Load()
}

// CurrentJob Job being searched, nil before the first one arrives
func (m *Miner) CurrentJob() *stratum.Job {
	return m.current.Load()
}

func (m *Miner) Mode() NonceMode {
	return m.config.Mode
}

// Run Consumes jobs and searches them until ctx is cancelled. Failures only abandon the job they happened on.
func (m *Miner) Run(ctx context.Context) error {
	if m.config.ReportInterval > 0 {
		go func() {
			for range utils.ContextTick(ctx, m.config.ReportInterval) {
				utils.Logf("[Miner] Hashrate: %s, %d hashes, %d shares", utils.HashrateString(m.hashrate.Rate(time.Now())), m.hashrate.Total(), m.Found())
			}
		}()
	}

	for {
		job, err := m.jobs.Consume(ctx)
		if err != nil {
			return err
		}

		if err = m.search(ctx, job); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			utils.Errorf("[Miner] Abandoning job %s: %s", job.JobId, err)
		}
	}
}

func (m *Miner) nonceLimit() uint32 {
	if m.config.Mode == NonceModeRestricted {
		return 1<<(restrictedNonceSize*8) - 1
	}
	return 1<<(NonceSize*8) - 1
}

// search Iterates nonces over job. Returns nil when a newer job is pending.
func (m *Miner) search(ctx context.Context, job *stratum.Job) error {
	threshold, err := job.Threshold()
	if err != nil {
		return err
	}
	// restricted shares are submitted with the nonce read back from the full 4 bytes
	if m.config.Mode == NonceModeRestricted && len(job.Blob) < NonceOffset+NonceSize {
		return fmt.Errorf("%w: size %d, need at least %d to submit", ErrMalformedBlob, len(job.Blob), NonceOffset+NonceSize)
	}

	m.current.Store(job)
	utils.Logf("[Miner] New job with target: %s, %s, height: %d", hex.EncodeToString(job.Target), job.Variant, job.Height)

	buf := make([]byte, 0, len(job.Blob))
	limit := m.nonceLimit()

	for nonce := uint32(1); ; nonce++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if m.jobs.HasPending() {
			return nil
		}

		encoded, err := EncodeNonce(buf[:0], job.Blob, nonce, m.config.Mode)
		if err != nil {
			return err
		}

		digest, err := m.hasher.Hash(encoded, job.Variant, job.SeedHash, job.Height)
		if err != nil {
			return err
		}
		m.hashrate.Add(1)

		if digest.Trailing64() < threshold {
			if m.jobs.HasPending() {
				utils.Debugf("[Miner] Dropping share for superseded job %s", job.JobId)
				return nil
			}

			utils.Logf("[Miner] Found share with difficulty %s, hashrate: %s", types.DifficultyFromPoW(digest), utils.HashrateString(m.hashrate.Rate(time.Now())))

			submission := &stratum.Submission{
				SessionId: job.SessionId,
				JobId:     job.JobId,
				Nonce:     nonce,
				Result:    digest,
			}
			if m.config.Mode == NonceModeRestricted {
				// high byte belongs to the pool, submit what was actually hashed
				if submission.Nonce, err = DecodeNonce(encoded); err != nil {
					return err
				}
			}

			m.found.Add(1)
			if err = m.submitter.Submit(submission); err != nil {
				utils.Errorf("[Miner] Could not submit share for job %s: %s", job.JobId, err)
			}

			if m.jobs.WaitPending(ctx, m.config.SubmitWait) {
				return nil
			}
		}

		if nonce == limit {
			return fmt.Errorf("%w after %d nonces", ErrNonceSpaceExhausted, limit)
		}
	}
}
