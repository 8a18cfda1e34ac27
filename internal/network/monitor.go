// Package network tracks connectivity and publishes edge-triggered
// online/offline events to subscribers.
package network

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"
)

// Checker probes whether the network is reachable right now.
type Checker interface {
	Check(ctx context.Context) bool
}

// HTTPChecker probes connectivity with an HTTP HEAD request.
type HTTPChecker struct {
	URL    string
	Client *http.Client
}

// NewHTTPChecker creates a checker against the given probe URL.
func NewHTTPChecker(url string) *HTTPChecker {
	return &HTTPChecker{
		URL: url,
		Client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Check reports reachability. Any response, including an error status,
// counts as online; only transport failures count as offline.
func (c *HTTPChecker) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL, nil)
	if err != nil {
		return false
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Monitor polls a Checker and notifies subscribers on state transitions.
// Platform integrations that receive push-style connectivity callbacks can
// bypass polling entirely via SetOnline.
type Monitor struct {
	checker  Checker
	interval time.Duration

	mu          sync.RWMutex
	online      bool
	started     bool
	cancel      context.CancelFunc
	subscribers map[int]func(online bool)
	nextID      int
}

// NewMonitor creates a monitor polling at the given interval.
func NewMonitor(checker Checker, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		checker:     checker,
		interval:    interval,
		subscribers: map[int]func(bool){},
	}
}

// Start runs the initial probe synchronously, then polls in the
// background until Stop or context cancellation.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	var pollCtx context.Context
	pollCtx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	if m.checker != nil {
		m.SetOnline(m.checker.Check(pollCtx))
	}

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				if m.checker != nil {
					m.SetOnline(m.checker.Check(pollCtx))
				}
			}
		}
	}()
}

// Stop halts background polling.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.started = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Online returns the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a connectivity observation. Subscribers are notified
// only on transitions.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	if online {
		log.Printf("[NETWORK] connection restored")
	} else {
		log.Printf("[NETWORK] connection lost")
	}
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers a transition callback and returns an unsubscribe
// func. The callback runs on the goroutine that observed the transition.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}
