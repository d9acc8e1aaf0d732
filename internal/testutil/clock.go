package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock returns a settable time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to Monday 2025-10-20 09:30 local time.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2025, 10, 20, 9, 30, 0, 0, time.Local))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *StubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// At returns a time on the clock's current date at hh:mm.
func (c *StubClock) At(hh, mm int) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
}

// StubIDGenerator returns sequential IDs: "id-1", "id-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// Notification is a single call captured by RecordingNotifier.
type Notification struct {
	Title string
	Body  string
}

// RecordingNotifier captures notifications instead of delivering them.
type RecordingNotifier struct {
	mu    sync.Mutex
	Sent  []Notification
	Fails error
}

func (n *RecordingNotifier) Notify(title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Title: title, Body: body})
	return n.Fails
}

func (n *RecordingNotifier) Titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, 0, len(n.Sent))
	for _, s := range n.Sent {
		titles = append(titles, s.Title)
	}
	return titles
}
