/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

// ConnState tracks a participant's connection over the life of a session.
// A participant that drops never returns to Connected.
type ConnState int

const (
	NeverConnected ConnState = iota
	Connected
	Disconnected
)

func (s ConnState) String() string {
	switch s {
	case NeverConnected:
		return "never connected"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Player is a participant in a session.
type Player struct {
	ID          string
	Token       string
	DisplayName string
	Funds       int
	State       ConnState

	conn Conn
}

func (p *Player) View() PlayerView {
	return PlayerView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Funds:       p.Funds,
	}
}

// Roster is the participant registry of one session, kept in join order.
type Roster struct {
	players map[string]*Player
	order   []string
}

func newRoster() *Roster {
	return &Roster{players: make(map[string]*Player)}
}

func (r *Roster) Add(p *Player) {
	if _, exists := r.players[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}

	r.players[p.ID] = p
}

func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.players[id]

	return p, ok
}

func (r *Roster) ByToken(token string) (*Player, bool) {
	for _, id := range r.order {
		if p := r.players[id]; p.Token == token {
			return p, true
		}
	}

	return nil, false
}

// Remove deletes a participant, reporting whether it was present.
func (r *Roster) Remove(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}

	delete(r.players, id)

	dst := r.order[:0]
	for _, pid := range r.order {
		if pid != id {
			dst = append(dst, pid)
		}
	}
	r.order = dst

	return true
}

func (r *Roster) Len() int {
	return len(r.players)
}

// All returns the participants in join order.
func (r *Roster) All() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}

	return out
}

func (r *Roster) Views() []PlayerView {
	out := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id].View())
	}

	return out
}

// Funds is a snapshot of every balance keyed by participant id.
func (r *Roster) Funds() map[string]int {
	funds := make(map[string]int, len(r.players))
	for id, p := range r.players {
		funds[id] = p.Funds
	}

	return funds
}

func (r *Roster) CreditAll(amount int) {
	for _, p := range r.players {
		p.Funds += amount
	}
}

// PurgeUnconnected removes everyone without a live connection and returns
// the removed participants.
func (r *Roster) PurgeUnconnected() []*Player {
	var purged []*Player

	for _, p := range r.All() {
		if p.State != Connected {
			r.Remove(p.ID)
			purged = append(purged, p)
		}
	}

	return purged
}
