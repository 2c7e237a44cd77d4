package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/metrics"
	"github.com/veritick/veritick/ports"
	"go.uber.org/zap"
)

const (
	// frameTickInterval drives the issuance loop at a bounded rate,
	// standing in for a display refresh callback.
	frameTickInterval = 16 * time.Millisecond

	// rateReportInterval is how often the observed frame rate is
	// reported and the counter reset.
	rateReportInterval = time.Second

	// persistentFailureThreshold is the consecutive mint failure count
	// past which the status message escalates.
	persistentFailureThreshold = 10
)

// KeyMode describes where a session's cipher key came from.
type KeyMode string

const (
	// KeyModeOperator means the key was supplied by the operator and
	// tokens stay verifiable across restarts.
	KeyModeOperator KeyMode = "operator"

	// KeyModeSession means the key was generated for this session and
	// never leaves its memory; verification is timing-only elsewhere.
	KeyModeSession KeyMode = "session"
)

// SessionConfig configures a generator session.
type SessionConfig struct {
	Version   uint8
	RoomCode  uint8
	TargetFPS int
	KeyMode   KeyMode
}

// SessionStatus is a point-in-time snapshot of a running session.
type SessionStatus struct {
	ID                  string  `json:"id"`
	TargetFPS           int     `json:"targetFps"`
	RenderedFPS         int     `json:"renderedFps"`
	ClockOffsetMs       int64   `json:"clockOffsetMs"`
	MintFailures        int64   `json:"mintFailures"`
	ConsecutiveFailures int32   `json:"consecutiveFailures"`
	StatusMessage       string  `json:"statusMessage"`
	KeyMode             KeyMode `json:"keyMode"`
}

// GeneratorSession owns everything that was ambient state in earlier
// designs: the token creation record, the clock offset and the loop
// flags all live here, constructed at session start and torn down with
// the session.
type GeneratorSession struct {
	id       string
	cipher   *core.Cipher
	recorder ports.TokenRecorder
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics

	version  uint8
	roomCode uint8
	keyMode  KeyMode

	clockOffset  atomic.Int64
	targetFPS    atomic.Int32
	renderedFPS  atomic.Int32
	mintFailures atomic.Int64
	consecFails  atomic.Int32
	latestToken  atomic.Value // string

	statusMu  sync.Mutex
	statusMsg string
}

// NewGeneratorSession creates a session. m may be nil.
func NewGeneratorSession(
	cipher *core.Cipher,
	recorder ports.TokenRecorder,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
	cfg SessionConfig,
) *GeneratorSession {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 30
	}
	if cfg.KeyMode == "" {
		cfg.KeyMode = KeyModeSession
	}

	s := &GeneratorSession{
		id:       uuid.New().String(),
		cipher:   cipher,
		recorder: recorder,
		logger:   logger,
		metrics:  m,
		version:  cfg.Version,
		roomCode: cfg.RoomCode,
		keyMode:  cfg.KeyMode,
	}
	s.targetFPS.Store(int32(cfg.TargetFPS))
	s.latestToken.Store("")
	if s.metrics != nil {
		s.metrics.SetTargetFPS(cfg.TargetFPS)
	}
	return s
}

// ID returns the session identifier.
func (s *GeneratorSession) ID() string {
	return s.id
}

// KeyMode reports where the session key came from.
func (s *GeneratorSession) KeyMode() KeyMode {
	return s.keyMode
}

// SyncClock performs the one-shot round-trip probe against the remote
// time oracle and stores the estimated offset. On any failure the
// offset stays 0 (clocks assumed aligned); the error is logged, never
// surfaced to the caller.
func (s *GeneratorSession) SyncClock(ctx context.Context, oracle ports.TimeOracle) int64 {
	t0 := time.Now().UnixMilli()
	remote, err := oracle.ServerTime(ctx)
	t3 := time.Now().UnixMilli()
	if err != nil {
		s.logger.Warnw("clock sync failed, assuming aligned clocks",
			"error", err, "session_id", s.id)
		s.clockOffset.Store(0)
		return 0
	}

	offset := core.EstimateClockOffset(t0, remote, t3)
	s.clockOffset.Store(offset)
	s.logger.Infow("clock synchronized",
		"offset_ms", offset, "rtt_ms", t3-t0, "session_id", s.id)
	return offset
}

// Run drives the issuance loop until ctx is cancelled. Frame ticks
// advance a counter and mint whenever the configured inter-mint
// interval has elapsed; once a second the observed frame rate is
// reported and reset. Mint errors never abort the loop.
func (s *GeneratorSession) Run(ctx context.Context) {
	frameTicker := time.NewTicker(frameTickInterval)
	defer frameTicker.Stop()
	reportTicker := time.NewTicker(rateReportInterval)
	defer reportTicker.Stop()

	var frames int32
	var lastMint int64

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("generator session stopped", "session_id", s.id)
			return

		case <-frameTicker.C:
			frames++
			now := time.Now().UnixMilli()
			interval := int64(math.Round(1000 / float64(s.targetFPS.Load())))
			if now-lastMint < interval {
				continue
			}
			if _, err := s.Mint(); err != nil {
				s.onMintFailure(err)
				continue
			}
			lastMint = now

		case <-reportTicker.C:
			s.renderedFPS.Store(frames)
			if s.metrics != nil {
				s.metrics.SetRenderedFPS(float64(frames))
			}
			s.logger.Debugw("render rate", "fps", frames, "session_id", s.id)
			frames = 0
		}
	}
}

// Mint builds, encrypts and records one token stamped with the
// synchronized clock. Safe to call concurrently with the loop: writes
// to the recorder are keyed by the unique token string.
func (s *GeneratorSession) Mint() (string, error) {
	createdAt := time.Now().UnixMilli() + s.clockOffset.Load()

	payload, err := core.NewPayload(s.version, createdAt, s.roomCode)
	if err != nil {
		return "", err
	}

	token, err := s.cipher.Encrypt(payload)
	if err != nil {
		return "", err
	}

	s.recorder.Record(token, createdAt)
	s.latestToken.Store(token)
	s.consecFails.Store(0)
	s.setStatus("")
	if s.metrics != nil {
		s.metrics.IncMintedTokens()
	}
	return token, nil
}

func (s *GeneratorSession) onMintFailure(err error) {
	fails := s.consecFails.Add(1)
	s.mintFailures.Add(1)
	if s.metrics != nil {
		s.metrics.IncMintFailures()
	}

	if fails >= persistentFailureThreshold {
		s.setStatus("token generation is persistently failing")
		s.logger.Errorw("persistent mint failure",
			"error", err, "consecutive", fails, "session_id", s.id)
	} else {
		s.setStatus("token generation failed, retrying")
		s.logger.Warnw("mint failed",
			"error", err, "consecutive", fails, "session_id", s.id)
	}
}

// LatestToken returns the most recently minted token, or "" before the
// first mint.
func (s *GeneratorSession) LatestToken() string {
	return s.latestToken.Load().(string)
}

// SetTargetFPS changes the minting rate immediately, without restarting
// the loop.
func (s *GeneratorSession) SetTargetFPS(fps int) error {
	if fps <= 0 || fps > 240 {
		return core.ErrInvalidRequest
	}
	s.targetFPS.Store(int32(fps))
	if s.metrics != nil {
		s.metrics.SetTargetFPS(fps)
	}
	s.logger.Infow("target fps changed", "fps", fps, "session_id", s.id)
	return nil
}

// TargetFPS returns the configured minting rate.
func (s *GeneratorSession) TargetFPS() int {
	return int(s.targetFPS.Load())
}

// ClockOffset returns the current offset estimate in milliseconds.
func (s *GeneratorSession) ClockOffset() int64 {
	return s.clockOffset.Load()
}

// Recorder exposes the session's token record for delta aggregation.
func (s *GeneratorSession) Recorder() ports.TokenRecorder {
	return s.recorder
}

// Status returns a snapshot of the session state.
func (s *GeneratorSession) Status() SessionStatus {
	s.statusMu.Lock()
	msg := s.statusMsg
	s.statusMu.Unlock()

	return SessionStatus{
		ID:                  s.id,
		TargetFPS:           int(s.targetFPS.Load()),
		RenderedFPS:         int(s.renderedFPS.Load()),
		ClockOffsetMs:       s.clockOffset.Load(),
		MintFailures:        s.mintFailures.Load(),
		ConsecutiveFailures: s.consecFails.Load(),
		StatusMessage:       msg,
		KeyMode:             s.keyMode,
	}
}

func (s *GeneratorSession) setStatus(msg string) {
	s.statusMu.Lock()
	s.statusMsg = msg
	s.statusMu.Unlock()
}
