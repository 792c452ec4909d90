package player

import (
	"context"
	"sync"
)

// Registry maps guild IDs to their engines.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine
	deps    Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{engines: make(map[string]*Engine), deps: deps}
}

// GetOrCreate returns the guild's engine, creating it on first use or after
// the previous one was removed.
func (r *Registry) GetOrCreate(guildID string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[guildID]; ok && !e.Closed() {
		return e
	}
	e := NewEngine(guildID, r.deps)
	r.engines[guildID] = e
	return e
}

func (r *Registry) Peek(guildID string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines[guildID]
}

// Remove drops the guild's engine and drains it.
func (r *Registry) Remove(guildID string) bool {
	r.mu.Lock()
	e, ok := r.engines[guildID]
	delete(r.engines, guildID)
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.Reset()
	return true
}

// ChannelEmptied handles the last listener leaving channelID. The engine is
// removed only when it is connected to that channel.
func (r *Registry) ChannelEmptied(guildID, channelID string) bool {
	r.mu.Lock()
	e, ok := r.engines[guildID]
	if !ok || channelID == "" || e.ConnectedChannel() != channelID {
		r.mu.Unlock()
		return false
	}
	delete(r.engines, guildID)
	r.mu.Unlock()

	e.Reset()
	return true
}

// Shutdown drains every engine and waits for their loops until ctx is done.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for id, e := range r.engines {
		engines = append(engines, e)
		delete(r.engines, id)
	}
	r.mu.Unlock()

	for _, e := range engines {
		e.Reset()
	}
	for _, e := range engines {
		if err := e.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
