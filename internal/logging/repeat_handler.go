package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const maxTrackedRecords = 4096

// repeatState is shared by every handler derived from one SuppressRepeats call.
type repeatState struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	seen   map[uint64]*repeatEntry
}

type repeatEntry struct {
	first      time.Time
	suppressed int
}

type repeatHandler struct {
	next  slog.Handler
	state *repeatState
	// salt distinguishes handlers derived with different attrs or groups
	salt uint64
}

// SuppressRepeats drops records identical in level, message and attributes to
// one already emitted within window. The next record emitted for that content
// after the window carries a suppressed=<n> attribute.
func SuppressRepeats(h slog.Handler, window time.Duration) slog.Handler {
	return &repeatHandler{
		next: h,
		state: &repeatState{
			window: window,
			now:    time.Now,
			seen:   make(map[uint64]*repeatEntry),
		},
	}
}

func (h *repeatHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *repeatHandler) Handle(ctx context.Context, r slog.Record) error {
	key := h.fingerprint(r)
	s := h.state

	s.mu.Lock()
	now := s.now()
	entry, ok := s.seen[key]
	if ok && now.Sub(entry.first) < s.window {
		entry.suppressed++
		s.mu.Unlock()
		return nil
	}
	suppressed := 0
	if ok {
		suppressed = entry.suppressed
	}
	if len(s.seen) >= maxTrackedRecords {
		s.prune(now)
	}
	s.seen[key] = &repeatEntry{first: now}
	s.mu.Unlock()

	if suppressed > 0 {
		r = r.Clone()
		r.AddAttrs(slog.Int("suppressed", suppressed))
	}
	return h.next.Handle(ctx, r)
}

// prune drops expired entries, or everything if none have expired.
func (s *repeatState) prune(now time.Time) {
	for k, e := range s.seen {
		if now.Sub(e.first) >= s.window {
			delete(s.seen, k)
		}
	}
	if len(s.seen) >= maxTrackedRecords {
		s.seen = make(map[uint64]*repeatEntry)
	}
}

func (h *repeatHandler) fingerprint(r slog.Record) uint64 {
	d := xxhash.New()
	var salt [8]byte
	for i := range salt {
		salt[i] = byte(h.salt >> (8 * i))
	}
	_, _ = d.Write(salt[:])
	_, _ = d.WriteString(r.Level.String())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(a.Key)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(a.Value.Resolve().String())
		return true
	})
	return d.Sum64()
}

func (h *repeatHandler) derive(next slog.Handler, tag string) *repeatHandler {
	return &repeatHandler{
		next:  next,
		state: h.state,
		salt:  xxhash.Sum64String(tag) ^ (h.salt * 31),
	}
}

func (h *repeatHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	tag := "attrs"
	for _, a := range attrs {
		tag += "\x00" + a.Key + "=" + a.Value.Resolve().String()
	}
	return h.derive(h.next.WithAttrs(attrs), tag)
}

func (h *repeatHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(h.next.WithGroup(name), "group\x00"+name)
}
