// Package registry is the engine's client directory. Clients are seeded at
// startup and never change at runtime, so a read-mostly memory map suffices.
package registry

import (
	"context"
	"strings"
	"sync"

	"authbridge/internal/engine/models"
	"authbridge/pkg/platform/sentinel"
)

type InMemoryRegistry struct {
	mu      sync.RWMutex
	clients map[string]models.RegisteredClient
}

func NewInMemory() *InMemoryRegistry {
	return &InMemoryRegistry{clients: make(map[string]models.RegisteredClient)}
}

// NewInMemoryFromSeeds parses a comma-separated "id:name:redirect_uri" list.
// Name and redirect are optional; the id doubles as the display name when no
// name is given. Empty entries are skipped rather than failing startup.
func NewInMemoryFromSeeds(seeds string) *InMemoryRegistry {
	r := NewInMemory()
	for _, entry := range strings.Split(seeds, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		client := models.RegisteredClient{ClientID: parts[0], Name: parts[0]}
		if len(parts) > 1 && parts[1] != "" {
			client.Name = parts[1]
		}
		if len(parts) > 2 && parts[2] != "" {
			client.RedirectURIs = []string{parts[2]}
		}
		r.Add(client)
	}
	return r
}

func (r *InMemoryRegistry) Add(client models.RegisteredClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ClientID] = client
}

// FindByClientID returns the client or sentinel.ErrNotFound.
func (r *InMemoryRegistry) FindByClientID(_ context.Context, clientID string) (models.RegisteredClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return models.RegisteredClient{}, sentinel.ErrNotFound
	}
	return client, nil
}

// DisplayName resolves a client ID to its human-readable name. Satisfies the
// bridge's ClientDirectory dependency.
func (r *InMemoryRegistry) DisplayName(ctx context.Context, clientID string) (string, error) {
	client, err := r.FindByClientID(ctx, clientID)
	if err != nil {
		return "", err
	}
	return client.Name, nil
}
