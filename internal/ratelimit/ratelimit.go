// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	Window        time.Duration // length of one counting window
	MaxRequests   int           // requests allowed per window
	CleanupPeriod time.Duration
	BanDuration   time.Duration // cool-off after the limit is exceeded
}

// DefaultChatConfig allows a steady conversation but stops scripted abuse
// of the completion provider.
func DefaultChatConfig(perMinute int) *Config {
	return &Config{
		Window:        time.Minute,
		MaxRequests:   perMinute,
		CleanupPeriod: 10 * time.Minute,
		BanDuration:   2 * time.Minute,
	}
}

type record struct {
	count     int
	firstSeen time.Time
	bannedAt  *time.Time
}

// Info describes the limiter's decision for one request.
type Info struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

// Limiter is an in-memory fixed-window limiter keyed by client identifier.
type Limiter struct {
	config  *Config
	records map[string]*record
	mu      sync.Mutex
	now     func() time.Time
	stopCh  chan struct{}
	stop    sync.Once
}

func New(config *Config) *Limiter {
	l := newLimiter(config, time.Now)
	go l.cleanupLoop()
	return l
}

func newLimiter(config *Config, now func() time.Time) *Limiter {
	return &Limiter{
		config:  config,
		records: make(map[string]*record),
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

// Allow counts one request for key.
func (l *Limiter) Allow(key string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[key]
	if ok && rec.bannedAt != nil {
		if elapsed := now.Sub(*rec.bannedAt); elapsed < l.config.BanDuration {
			return Info{
				ResetTime:  rec.bannedAt.Add(l.config.BanDuration),
				RetryAfter: l.config.BanDuration - elapsed,
				Banned:     true,
			}
		}
		ok = false
	}
	if !ok || now.Sub(rec.firstSeen) >= l.config.Window {
		l.records[key] = &record{count: 1, firstSeen: now}
		return Info{
			Allowed:   true,
			Remaining: l.config.MaxRequests - 1,
			ResetTime: now.Add(l.config.Window),
		}
	}

	rec.count++
	if rec.count > l.config.MaxRequests {
		banTime := now
		rec.bannedAt = &banTime
		return Info{
			ResetTime:  now.Add(l.config.BanDuration),
			RetryAfter: l.config.BanDuration,
			Banned:     true,
		}
	}
	return Info{
		Allowed:   true,
		Remaining: l.config.MaxRequests - rec.count,
		ResetTime: rec.firstSeen.Add(l.config.Window),
	}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// cleanup drops records whose window and ban have both expired.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, rec := range l.records {
		if rec.bannedAt != nil {
			if now.Sub(*rec.bannedAt) >= l.config.BanDuration {
				delete(l.records, key)
			}
			continue
		}
		if now.Sub(rec.firstSeen) >= l.config.Window {
			delete(l.records, key)
		}
	}
}

// Len reports how many clients are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Close() {
	l.stop.Do(func() { close(l.stopCh) })
}
