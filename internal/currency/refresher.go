package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

// DefaultRefreshInterval matches the polling period of the quoting UI.
const DefaultRefreshInterval = 5 * time.Minute

// ErrNoRates is returned by a Source that answered without usable rates.
var ErrNoRates = errors.New("currency: no rates received")

// ErrUpstreamFallback is returned when the rate service answered with its
// own fallback table instead of live rates.
var ErrUpstreamFallback = errors.New("currency: upstream served fallback rates")

// Source fetches a fresh rate table.
type Source interface {
	Fetch(ctx context.Context) (Table, error)
}

// Snapshot is the rate table currently in use.
type Snapshot struct {
	Rates     Table     `json:"rates"`
	UpdatedAt time.Time `json:"updated_at"`
	Fallback  bool      `json:"fallback"`
}

// RateOf looks up code in the snapshot rates.
func (s Snapshot) RateOf(code string) decimal.Decimal {
	return s.Rates.RateOf(code)
}

// Refresher keeps a rate snapshot current by polling a Source. Failures keep
// the last good snapshot; until the first success the fallback rates apply.
type Refresher struct {
	src      Source
	interval time.Duration
	maxRetry time.Duration

	mu      sync.RWMutex
	current Snapshot
	hooks   []func(Snapshot)
	onFail  func(error)
}

// NewRefresher creates a refresher starting from FallbackRates.
func NewRefresher(src Source, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		src:      src,
		interval: interval,
		maxRetry: 30 * time.Second,
		current:  Snapshot{Rates: FallbackRates(), Fallback: true},
	}
}

// OnUpdate registers fn to be called after every successful refresh.
// Register hooks before calling Run.
func (r *Refresher) OnUpdate(fn func(Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// OnFailure registers fn to be called when a refresh gives up.
func (r *Refresher) OnFailure(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFail = fn
}

// Snapshot returns a copy of the current rates.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.current
	s.Rates = r.current.Rates.Clone()
	return s
}

// Refresh fetches once, retrying with exponential backoff.
func (r *Refresher) Refresh(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = r.maxRetry

	var rates Table
	err := backoff.RetryNotify(
		func() error {
			t, err := r.src.Fetch(ctx)
			if err != nil {
				return err
			}
			if len(t) == 0 {
				return backoff.Permanent(ErrNoRates)
			}
			rates = t
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			slog.Warn("exchange rate fetch failed, retrying", "err", err, "next_attempt_in", next)
		},
	)
	if err != nil {
		r.mu.RLock()
		onFail := r.onFail
		r.mu.RUnlock()
		if onFail != nil {
			onFail(err)
		}
		return fmt.Errorf("refresh exchange rates: %w", err)
	}

	merged := FallbackRates()
	for k, v := range rates {
		merged[strings.ToUpper(k)] = v
	}
	merged[Base] = decimal.NewFromInt(1)

	snap := Snapshot{Rates: merged, UpdatedAt: time.Now().UTC()}

	r.mu.Lock()
	r.current = snap
	hooks := append([]func(Snapshot){}, r.hooks...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(Snapshot{Rates: merged.Clone(), UpdatedAt: snap.UpdatedAt})
	}
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		slog.Error("initial exchange rate refresh failed, using fallback rates", "err", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				slog.Error("exchange rate refresh failed, keeping previous rates", "err", err)
			}
		}
	}
}

// StaticSource always returns the same table.
type StaticSource Table

// Fetch implements Source.
func (s StaticSource) Fetch(context.Context) (Table, error) {
	return Table(s).Clone(), nil
}

// HTTPSource fetches rates from a JSON endpoint answering
// {"base_currency":"EUR","rates":{"USD":"0.95",...}}.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source with a bounded request timeout.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type ratesPayload struct {
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	Fallback     bool                       `json:"fallback"`
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if payload.BaseCurrency != "" && !strings.EqualFold(payload.BaseCurrency, Base) {
		return nil, backoff.Permanent(fmt.Errorf("currency: unsupported base %s", payload.BaseCurrency))
	}
	if payload.Fallback {
		return nil, ErrUpstreamFallback
	}
	if len(payload.Rates) == 0 {
		return nil, ErrNoRates
	}

	t := make(Table, len(payload.Rates))
	for k, v := range payload.Rates {
		if v.IsPositive() {
			t[strings.ToUpper(k)] = v
		}
	}
	return t, nil
}
