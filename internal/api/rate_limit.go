package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Call quota headers sent with every REST response. Each window reports its
// size, the calls left and the seconds until the window decays.
const (
	headerPrefixShort = "X-Plenty-Global-Short-Period-"
	headerPrefixLong  = "X-Plenty-Global-Long-Period-"
	headerPrefixRoute = "X-Plenty-Route-"
)

// RateLimitWindow is one call quota window.
type RateLimitWindow struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitInfo holds the parsed call quota headers of the last response.
type RateLimitInfo struct {
	ShortPeriod *RateLimitWindow
	LongPeriod  *RateLimitWindow
	Route       *RateLimitWindow
}

// Meta returns a JSON-ready map for CLI output metadata.
func (r *RateLimitInfo) Meta() map[string]any {
	if r == nil {
		return nil
	}
	meta := map[string]any{}
	add := func(name string, w *RateLimitWindow) {
		if w == nil {
			return
		}
		entry := map[string]any{"limit": w.Limit, "remaining": w.Remaining}
		if !w.ResetAt.IsZero() {
			entry["reset_at"] = w.ResetAt.UTC().Format(time.RFC3339)
		}
		meta[name] = entry
	}
	add("short_period", r.ShortPeriod)
	add("long_period", r.LongPeriod)
	add("route", r.Route)
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// pause returns how long to wait before the next call when a window is
// exhausted. The long period window is ignored: waiting for it would block
// for up to an hour, so the remote 429 is surfaced instead.
func (r *RateLimitInfo) pause(now time.Time) time.Duration {
	if r == nil {
		return 0
	}
	var wait time.Duration
	for _, w := range []*RateLimitWindow{r.ShortPeriod, r.Route} {
		if w == nil || w.Remaining > 0 || w.ResetAt.IsZero() {
			continue
		}
		if d := w.ResetAt.Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}

// LastRateLimit returns a copy of the most recent quota info seen by the transport.
func (t *HTTPTransport) LastRateLimit() *RateLimitInfo {
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()
	if t.lastRateLimit == nil {
		return nil
	}
	cp := RateLimitInfo{}
	copyWindow := func(w *RateLimitWindow) *RateLimitWindow {
		if w == nil {
			return nil
		}
		v := *w
		return &v
	}
	cp.ShortPeriod = copyWindow(t.lastRateLimit.ShortPeriod)
	cp.LongPeriod = copyWindow(t.lastRateLimit.LongPeriod)
	cp.Route = copyWindow(t.lastRateLimit.Route)
	return &cp
}

func (t *HTTPTransport) recordRateLimit(h http.Header) {
	info := parseRateLimitInfo(h, time.Now())
	if info == nil {
		return
	}
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()
	t.lastRateLimit = info
}

func (t *HTTPTransport) quotaPause() time.Duration {
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()
	return t.lastRateLimit.pause(time.Now())
}

func parseRateLimitInfo(h http.Header, now time.Time) *RateLimitInfo {
	if h == nil {
		return nil
	}
	info := &RateLimitInfo{
		ShortPeriod: parseRateLimitWindow(h, headerPrefixShort, now),
		LongPeriod:  parseRateLimitWindow(h, headerPrefixLong, now),
		Route:       parseRateLimitWindow(h, headerPrefixRoute, now),
	}
	if info.ShortPeriod == nil && info.LongPeriod == nil && info.Route == nil {
		return nil
	}
	return info
}

func parseRateLimitWindow(h http.Header, prefix string, now time.Time) *RateLimitWindow {
	limit, okLimit := headerInt(h, prefix+"Limit")
	left, okLeft := headerInt(h, prefix+"Calls-Left")
	if !okLimit && !okLeft {
		return nil
	}
	w := &RateLimitWindow{Limit: limit, Remaining: left}
	if !okLeft {
		w.Remaining = limit
	}
	if decay, ok := headerInt(h, prefix+"Decay"); ok && decay >= 0 {
		w.ResetAt = now.Add(time.Duration(decay) * time.Second)
	}
	return w
}

func headerInt(h http.Header, key string) (int, bool) {
	value := strings.TrimSpace(h.Get(key))
	if value == "" {
		return 0, false
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return v, true
}
