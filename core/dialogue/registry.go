package dialogue

import (
	"sync"
	"time"
)

// DefaultDedupWindow is how long a finished trigger keeps rejecting re-deliveries.
const DefaultDedupWindow = 10 * time.Minute

type claim struct {
	running bool
	at      time.Time // claim time while running, release time afterwards
}

// Registry enforces one session per trigger message. Platforms deliver events
// at least once, so a key stays claimed while its session runs and for the
// dedup window after it ends.
type Registry struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	claims map[string]claim
}

// NewRegistry returns an empty registry; a non-positive window uses DefaultDedupWindow.
func NewRegistry(window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Registry{window: window, now: time.Now, claims: make(map[string]claim)}
}

// Key builds the registry key for a trigger message. Message ids are only
// unique within a chat on Telegram and within a channel on Slack.
func Key(msg NewMessage) string {
	return msg.Platform + ":" + msg.ChannelID + ":" + msg.ID
}

// Claim marks key as running. It returns false when the key is already known.
func (r *Registry) Claim(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.pruneLocked(now)
	if _, ok := r.claims[key]; ok {
		return false
	}
	r.claims[key] = claim{running: true, at: now}
	return true
}

// Release marks key as finished; it is forgotten once the dedup window passes.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[key]; ok {
		r.claims[key] = claim{at: r.now()}
	}
}

// Running reports how many claimed sessions have not been released.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.claims {
		if c.running {
			n++
		}
	}
	return n
}

// Len reports how many keys are remembered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claims)
}

func (r *Registry) pruneLocked(now time.Time) {
	for k, c := range r.claims {
		if !c.running && now.Sub(c.at) >= r.window {
			delete(r.claims, k)
		}
	}
}
