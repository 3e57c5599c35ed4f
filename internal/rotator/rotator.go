// Package rotator manages the pool of API credentials used for outbound
// generation calls. It hands out credentials round-robin, puts a
// credential on cooldown when the provider reports a quota or rate-limit
// failure, and brings it back once the cooldown expires. When every
// credential is cooling, the one closest to recovery is handed out anyway
// so the system degrades instead of failing outright.
package rotator

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmehra/quizforge/internal/domain"
)

// FailureKind classifies an outbound call failure for the rotator.
// Only quota failures are the credential's fault; everything else leaves
// its state untouched.
type FailureKind string

const (
	FailureQuota     FailureKind = "quota"
	FailureTransient FailureKind = "transient"
	FailureInvalid   FailureKind = "invalid"
)

// Common errors returned by the Rotator
var (
	ErrNoCredentials     = errors.New("credential set cannot be empty")
	ErrUnknownCredential = errors.New("unknown credential")
)

// Default cooldown curve: base doubles per consecutive quota failure,
// capped so a flapping key is retried within minutes, not hours.
const (
	DefaultCooldownBase = 30 * time.Second
	DefaultCooldownCap  = 10 * time.Minute
)

// credentialState tracks per-credential rotation state.
type credentialState struct {
	cred      domain.Credential
	coolUntil time.Time
	streak    int
}

// Config holds configuration options for the rotator.
type Config struct {
	// CooldownBase is the cooldown applied after the first consecutive
	// quota failure. Doubles with each further failure.
	CooldownBase time.Duration

	// CooldownCap bounds the backoff growth.
	CooldownCap time.Duration

	// Now returns the current time. Defaults to time.Now; tests inject
	// a fake clock.
	Now func() time.Time
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		CooldownBase: DefaultCooldownBase,
		CooldownCap:  DefaultCooldownCap,
		Now:          time.Now,
	}
}

// Rotator spreads outbound calls across a fixed credential set.
// All methods are safe for concurrent use from every worker.
type Rotator struct {
	mu     sync.Mutex
	states []*credentialState
	byID   map[string]*credentialState
	cursor int
	config Config
	logger *slog.Logger
}

// New creates a Rotator over the given credential set.
// The set is fixed for the lifetime of the rotator.
func New(credentials []domain.Credential, config Config, logger *slog.Logger) (*Rotator, error) {
	if len(credentials) == 0 {
		return nil, ErrNoCredentials
	}

	if config.CooldownBase <= 0 {
		config.CooldownBase = DefaultCooldownBase
	}
	if config.CooldownCap <= 0 {
		config.CooldownCap = DefaultCooldownCap
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	states := make([]*credentialState, 0, len(credentials))
	byID := make(map[string]*credentialState, len(credentials))
	for _, c := range credentials {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		st := &credentialState{cred: c}
		states = append(states, st)
		byID[c.ID] = st
	}

	return &Rotator{
		states: states,
		byID:   byID,
		cursor: -1,
		config: config,
		logger: logger.With("component", "credential_rotator"),
	}, nil
}

// Acquire returns the next credential to use for an outbound call.
// Available credentials are selected round-robin; when every credential
// is cooling, the one whose cooldown expires first is returned.
func (r *Rotator) Acquire() domain.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.config.Now()

	// Round-robin scan starting just past the previous pick.
	for i := 0; i < len(r.states); i++ {
		idx := (r.cursor + 1 + i) % len(r.states)
		if !r.states[idx].coolUntil.After(now) {
			r.cursor = idx
			return r.states[idx].cred
		}
	}

	// Everything is cooling. Degrade to the credential closest to
	// recovery rather than failing the call outright.
	best := r.states[0]
	for _, st := range r.states[1:] {
		if st.coolUntil.Before(best.coolUntil) {
			best = st
		}
	}

	r.logger.Warn("all credentials cooling, degrading to earliest expiry",
		"credential_id", best.cred.ID,
		"cool_until", best.coolUntil)

	return best.cred
}

// ReportFailure records the outcome of a failed outbound call. A quota
// failure puts the credential on cooldown with exponential backoff; any
// other kind is not the credential's fault and leaves its state alone.
func (r *Rotator) ReportFailure(cred domain.Credential, kind FailureKind) error {
	if kind != FailureQuota {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.byID[cred.ID]
	if !ok {
		return ErrUnknownCredential
	}

	st.streak++

	cooldown := r.config.CooldownBase << (st.streak - 1)
	if cooldown > r.config.CooldownCap || cooldown <= 0 {
		cooldown = r.config.CooldownCap
	}
	st.coolUntil = r.config.Now().Add(cooldown)

	r.logger.Info("credential placed on cooldown",
		"credential_id", cred.ID,
		"failure_streak", st.streak,
		"cooldown", cooldown)

	return nil
}

// ReportSuccess resets the credential's failure streak.
func (r *Rotator) ReportSuccess(cred domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.byID[cred.ID]
	if !ok {
		return ErrUnknownCredential
	}

	st.streak = 0
	st.coolUntil = time.Time{}
	return nil
}

// Size returns the number of credentials in the set.
func (r *Rotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Available returns how many credentials are currently usable.
func (r *Rotator) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.config.Now()
	n := 0
	for _, st := range r.states {
		if !st.coolUntil.After(now) {
			n++
		}
	}
	return n
}
