// Package adverts broadcasts the configured adverts in order on a fixed
// interval.
package adverts

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
)

// Rotation cycles through the fetched adverts
type Rotation struct {
	host   host.Host
	logger *slog.Logger
	prefix string

	mu      sync.Mutex
	adverts []model.Advert
	current int
}

// New creates a new advert rotation with the given chat prefix
func New(h host.Host, prefix string, logger *slog.Logger) *Rotation {
	return &Rotation{
		host:   h,
		logger: logger,
		prefix: prefix,
	}
}

// Set replaces the advert list, keeping the rotation position when possible
func (r *Rotation) Set(adverts []model.Advert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adverts = adverts
	if r.current >= len(adverts) {
		r.current = 0
	}
}

// Next broadcasts the next advert, wrapping at the end of the list
func (r *Rotation) Next() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.adverts) == 0 {
		return
	}
	if r.current >= len(r.adverts) {
		r.current = 0
	}

	advert := r.adverts[r.current]
	r.current = (r.current + 1) % len(r.adverts)

	color := advert.Color
	if color == "" {
		color = "white"
	}

	// Rich-text chat markup understood by the host
	message := fmt.Sprintf("<color=blue>%s</color><color=%s>%s</color>", r.prefix, color, advert.Content)
	r.host.Broadcast(message)
}
