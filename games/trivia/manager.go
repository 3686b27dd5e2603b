/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound means no game has the requested pin.
	ErrNotFound = errors.New("game not found")
	// ErrConflict means the game is no longer accepting players.
	ErrConflict = errors.New("game already started")
)

// Manager holds every game keyed by pin. Games are never removed.
type Manager struct {
	mu    sync.RWMutex
	games map[string]*Game
	opts  options
}

func NewManager(opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Manager{
		games: make(map[string]*Game),
		opts:  o,
	}
}

// Create starts a new game in the lobby and returns its pin and host token.
func (m *Manager) Create(items []Item) (pin, hostToken string, err error) {
	m.mu.Lock()

	pin, err = unique(m.opts.ids.Pin, func(pin string) bool {
		_, exists := m.games[pin]
		return exists
	})
	if err != nil {
		m.mu.Unlock()

		return "", "", err
	}
	hostToken = m.opts.ids.Token()

	m.games[pin] = newGame(pin, hostToken, items, m.opts)

	m.mu.Unlock()

	m.opts.metrics.gameCreated()
	m.opts.logf("Created game %s with %d questions", pin, len(items))

	return pin, hostToken, nil
}

func (m *Manager) Get(pin string) (*Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.games[pin]

	return g, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.games)
}

// IssueJoin registers a new participant with the game at pin.
func (m *Manager) IssueJoin(pin string) (id, token string, err error) {
	g, ok := m.Get(pin)
	if !ok {
		return "", "", ErrNotFound
	}

	return g.addPlayer()
}

// Attach hands a freshly opened connection to the game at pin.
func (m *Manager) Attach(pin string, c Conn) (*Connection, error) {
	g, ok := m.Get(pin)
	if !ok {
		return nil, ErrNotFound
	}

	return g.Connect(c), nil
}
