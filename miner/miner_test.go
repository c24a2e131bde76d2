package miner

import (
	"context"
	"encoding/binary"
	"errors"
	"git.gammaspectra.live/P2Pool/stratum-miner/monero/pow"
	"git.gammaspectra.live/P2Pool/stratum-miner/stratum"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"sync"
	"testing"
	"time"
)

type recordingSubmitter struct {
	lock        sync.Mutex
	submissions []*stratum.Submission
	notify      chan *stratum.Submission
}

func newRecordingSubmitter() *recordingSubmitter {
	return &recordingSubmitter{
		notify: make(chan *stratum.Submission, 16),
	}
}

func (s *recordingSubmitter) Submit(submission *stratum.Submission) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.submissions = append(s.submissions, submission)
	select {
	case s.notify <- submission:
	default:
	}
	return nil
}

func (s *recordingSubmitter) all() []*stratum.Submission {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*stratum.Submission(nil), s.submissions...)
}

func (s *recordingSubmitter) next(t *testing.T) *stratum.Submission {
	t.Helper()
	select {
	case submission := <-s.notify:
		return submission
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for submission")
		return nil
	}
}

func digestWithTrailing(v uint64) (h types.Hash) {
	binary.LittleEndian.PutUint64(h[types.HashSize-8:], v)
	return h
}

// shareHasher Returns a share digest when the hashed nonce matches, keyed by job height
func shareHasher(shares map[uint64]uint32, onHash func(height uint64, nonce uint32)) pow.Hasher {
	return pow.HasherFunc(func(blob []byte, variant pow.Variant, seed types.Hash, height uint64) (types.Hash, error) {
		nonce, err := DecodeNonce(blob)
		if err != nil {
			return types.ZeroHash, err
		}
		if onHash != nil {
			onHash(height, nonce)
		}
		if n, ok := shares[height]; ok && n == nonce {
			return digestWithTrailing(0), nil
		}
		return digestWithTrailing(math.MaxUint64), nil
	})
}

func newTestJob(id string, height uint64) *stratum.Job {
	return &stratum.Job{
		Blob:      testBlob(76),
		JobId:     id,
		SessionId: "session",
		Target:    []byte{0xff, 0xff, 0xff, 0xff},
		Height:    height,
		Variant:   pow.VariantFromMajorVersion(16),
	}
}

func runMiner(t *testing.T, m *Miner) (cancel func()) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()
	return func() {
		cancelCtx()
		select {
		case err := <-done:
			assert.True(t, errors.Is(err, context.Canceled), "unexpected error %v", err)
		case <-time.After(time.Second * 5):
			t.Fatal("miner did not stop")
		}
	}
}

func TestMinerSubmitsShare(t *testing.T) {
	jobs := NewJobChannel()
	submitter := newRecordingSubmitter()
	m := NewMiner(Config{Mode: NonceModeStandard, SubmitWait: time.Millisecond * 50}, jobs, shareHasher(map[uint64]uint32{1: 5, 2: 3}, nil), submitter)

	stop := runMiner(t, m)
	defer stop()

	jobs.Publish(newTestJob("job1", 1))
	submission := submitter.next(t)
	assert.Equal(t, "session", submission.SessionId)
	assert.Equal(t, "job1", submission.JobId)
	assert.Equal(t, uint32(5), submission.Nonce)
	assert.Equal(t, digestWithTrailing(0), submission.Result)
	assert.GreaterOrEqual(t, m.Hashrate().Total(), uint64(5))

	// nonce restarts from 1 on a new job
	jobs.Publish(newTestJob("job2", 2))
	submission = submitter.next(t)
	assert.Equal(t, "job2", submission.JobId)
	assert.Equal(t, uint32(3), submission.Nonce)
	assert.Equal(t, uint64(2), m.Found())
	assert.Equal(t, "job2", m.CurrentJob().JobId)
}

func TestMinerRestrictedNonce(t *testing.T) {
	jobs := NewJobChannel()
	submitter := newRecordingSubmitter()
	m := NewMiner(Config{Mode: NonceModeRestricted, SubmitWait: time.Millisecond * 50}, jobs, shareHasher(map[uint64]uint32{1: 0xab000007}, nil), submitter)

	stop := runMiner(t, m)
	defer stop()

	job := newTestJob("job1", 1)
	job.Blob[42] = 0xab
	jobs.Publish(job)

	submission := submitter.next(t)
	assert.Equal(t, uint32(0xab000007), submission.Nonce)
	assert.Equal(t, "070000ab", stratum.EncodeNonce(submission.Nonce))
}

func TestMinerAbandonsSupersededJob(t *testing.T) {
	jobs := NewJobChannel()
	submitter := newRecordingSubmitter()
	job2 := newTestJob("job2", 2)

	var once sync.Once
	hasher := shareHasher(map[uint64]uint32{1: 10, 2: 4}, func(height uint64, nonce uint32) {
		if height == 1 && nonce == 10 {
			// arrives while the share of job1 is being computed
			once.Do(func() {
				jobs.Publish(job2)
			})
		}
	})
	m := NewMiner(Config{SubmitWait: time.Millisecond * 50}, jobs, hasher, submitter)

	stop := runMiner(t, m)
	defer stop()

	jobs.Publish(newTestJob("job1", 1))

	submission := submitter.next(t)
	assert.Equal(t, "job2", submission.JobId)
	assert.Equal(t, uint32(4), submission.Nonce)

	for _, s := range submitter.all() {
		assert.NotEqual(t, "job1", s.JobId)
	}
}

func TestMinerContinuesAfterSubmitWait(t *testing.T) {
	jobs := NewJobChannel()
	submitter := newRecordingSubmitter()
	hasher := pow.HasherFunc(func(blob []byte, variant pow.Variant, seed types.Hash, height uint64) (types.Hash, error) {
		nonce, _ := DecodeNonce(blob)
		if nonce == 2 || nonce == 6 {
			return digestWithTrailing(1), nil
		}
		return digestWithTrailing(math.MaxUint64), nil
	})
	m := NewMiner(Config{SubmitWait: time.Millisecond * 20}, jobs, hasher, submitter)

	stop := runMiner(t, m)
	defer stop()

	jobs.Publish(newTestJob("job1", 1))
	assert.Equal(t, uint32(2), submitter.next(t).Nonce)
	// same job resumes with the next nonce when nothing newer arrives
	assert.Equal(t, uint32(6), submitter.next(t).Nonce)
}

func TestMinerSearchFailures(t *testing.T) {
	jobs := NewJobChannel()
	submitter := newRecordingSubmitter()
	hashErr := errors.New("bad seed")
	var calls int
	hasher := pow.HasherFunc(func(blob []byte, variant pow.Variant, seed types.Hash, height uint64) (types.Hash, error) {
		calls++
		return types.ZeroHash, hashErr
	})
	m := NewMiner(Config{}, jobs, hasher, submitter)

	job := newTestJob("bad-target", 1)
	job.Target = []byte{0, 0, 0, 0}
	err := m.search(context.Background(), job)
	assert.True(t, errors.Is(err, stratum.ErrInvalidTarget), "unexpected error %v", err)

	job = newTestJob("short-blob", 1)
	job.Blob = job.Blob[:42]
	err = m.search(context.Background(), job)
	assert.True(t, errors.Is(err, ErrMalformedBlob), "unexpected error %v", err)
	assert.Zero(t, calls)

	restricted := NewMiner(Config{Mode: NonceModeRestricted}, jobs, hasher, submitter)
	job = newTestJob("short-restricted-blob", 1)
	job.Blob = job.Blob[:42]
	err = restricted.search(context.Background(), job)
	assert.True(t, errors.Is(err, ErrMalformedBlob), "unexpected error %v", err)
	assert.Zero(t, calls)

	err = m.search(context.Background(), newTestJob("hash-error", 1))
	assert.True(t, errors.Is(err, hashErr), "unexpected error %v", err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, submitter.all())
}

func TestMinerRecoversFromFailedJob(t *testing.T) {
	jobs := NewJobChannel()
	submitter := newRecordingSubmitter()
	attempted := make(chan struct{})
	var once sync.Once
	hasher := pow.HasherFunc(func(blob []byte, variant pow.Variant, seed types.Hash, height uint64) (types.Hash, error) {
		if height == 1 {
			once.Do(func() {
				close(attempted)
			})
			return types.ZeroHash, pow.ErrHashCapability
		}
		return digestWithTrailing(0), nil
	})
	m := NewMiner(Config{SubmitWait: time.Millisecond * 20}, jobs, hasher, submitter)

	stop := runMiner(t, m)
	defer stop()

	jobs.Publish(newTestJob("job1", 1))
	select {
	case <-attempted:
	case <-time.After(time.Second * 5):
		t.Fatal("job1 was not searched")
	}

	jobs.Publish(newTestJob("job2", 2))
	submission := submitter.next(t)
	assert.Equal(t, "job2", submission.JobId)
	assert.Equal(t, uint32(1), submission.Nonce)
}

func TestMinerNonceSpaceExhausted(t *testing.T) {
	jobs := NewJobChannel()
	m := NewMiner(Config{Mode: NonceModeRestricted}, jobs, shareHasher(nil, nil), newRecordingSubmitter())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	err := m.search(ctx, newTestJob("job1", 1))
	require.True(t, errors.Is(err, ErrNonceSpaceExhausted), "unexpected error %v", err)
	assert.Equal(t, uint64(0xffffff), m.Hashrate().Total())
}

func TestHashrateCounter(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewHashrateCounter(start)
	c.Add(10)
	c.Add(20)
	assert.Equal(t, uint64(30), c.Total())
	assert.Equal(t, float64(3), c.Rate(start.Add(time.Second*10)))
	assert.Zero(t, c.Rate(start))
}
