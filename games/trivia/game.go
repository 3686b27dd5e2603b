// Triviabox Trivia Game
//
// A host creates a game from a trivia template and shares its pin. Players
// join with the pin, are handed a whimsical display name and a token, and
// connect over a websocket. Each round shows one question with its answer
// masked; players suggest answers and bet their funds on any suggestion.
// When the round timer runs out, everyone who bet on the right answer gets
// double their wager back.
//
// Features:
// - One Game per pin, holding its own lock; timers and inbound frames for
//   a game are applied one at a time
// - Players that never connect are dropped after a grace period, and again
//   when the host starts the game
// - Every player is credited a stipend at the start of each round
// - Duplicate suggestions (case-insensitive) are ignored
// - Invalid bets and actions at the wrong time are silently dropped
// - Malformed frames and unknown tokens close the connection
// - The host advances to the next round by hand; the game ends after the
//   last question

package trivia

import (
	"encoding/json"
	"sync"
	"time"
)

// Status is the lifecycle stage of a game.
type Status int

const (
	StatusLobby Status = iota
	StatusStarted
	StatusRound
	StatusIntermission
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusLobby:
		return "lobby"
	case StatusStarted:
		return "started"
	case StatusRound:
		return "round"
	case StatusIntermission:
		return "intermission"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Conn is a message-oriented, full-duplex connection. Send must not block;
// a failed send only affects that recipient.
type Conn interface {
	Send(frame []byte) error
	Close() error
}

// Game is one trivia session.
type Game struct {
	mu sync.Mutex

	pin       string
	hostToken string
	opts      options
	createdAt time.Time

	status  Status
	bank    *Bank
	round   int
	current Item

	host    Conn
	players *Roster
	answers *Ledger
}

func newGame(pin, hostToken string, items []Item, opts options) *Game {
	return &Game{
		pin:       pin,
		hostToken: hostToken,
		opts:      opts,
		createdAt: time.Now(),
		status:    StatusLobby,
		bank:      newBank(items),
		players:   newRoster(),
		answers:   newLedger(opts.ids),
	}
}

func (g *Game) Pin() string {
	return g.pin
}

func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.status
}

// Players returns every registered participant in join order.
func (g *Game) Players() []PlayerView {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.players.Views()
}

// Funds is a snapshot of every participant's balance.
func (g *Game) Funds() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.players.Funds()
}

func (g *Game) logf(format string, args ...any) {
	g.opts.logf(format, args...)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

// addPlayer registers a participant that has not connected yet and arms
// the join grace timer.
func (g *Game) addPlayer() (id, token string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusLobby {
		return "", "", ErrConflict
	}

	ids := g.opts.ids

	id, err = unique(ids.ID, func(id string) bool {
		_, taken := g.players.Get(id)
		return taken
	})
	if err != nil {
		return "", "", err
	}

	token, err = unique(ids.Token, func(token string) bool {
		_, taken := g.players.ByToken(token)
		return taken || token == g.hostToken
	})
	if err != nil {
		return "", "", err
	}

	p := &Player{
		ID:          id,
		Token:       token,
		DisplayName: ids.DisplayName(),
		State:       NeverConnected,
	}

	g.players.Add(p)
	g.opts.metrics.playerJoined()

	g.logf("Player %q (%s) joined %s", p.DisplayName, p.ID, g.pin)

	g.opts.schedule(g.opts.joinGrace, func() {
		g.expirePlayer(p)
	})

	return p.ID, p.Token, nil
}

// expirePlayer drops p if it still has not connected.
func (g *Game) expirePlayer(p *Player) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, ok := g.players.Get(p.ID)
	if !ok || current != p || p.State == Connected {
		return
	}

	g.players.Remove(p.ID)
	g.opts.metrics.playersPurged(1)

	g.logf("Player %q (%s) never connected to %s", p.DisplayName, p.ID, g.pin)

	g.sendHostLocked(KindPlayerLeave, PlayerLeaveData{Player: p.View()})
}

func (g *Game) sendLocked(c Conn, frame []byte) {
	if err := c.Send(frame); err != nil {
		g.logf("Dropped frame to a client of %s: %v", g.pin, err)
	}
}

func (g *Game) sendHostLocked(kind Kind, data any) {
	if g.host == nil {
		return
	}

	frame, err := Encode(kind, data)
	if err != nil {
		g.logf("Failed to encode %s for %s: %v", kind, g.pin, err)
		return
	}

	g.sendLocked(g.host, frame)
}

// broadcastLocked sends one frame to the host and then every connected player.
func (g *Game) broadcastLocked(kind Kind, data any) {
	frame, err := Encode(kind, data)
	if err != nil {
		g.logf("Failed to encode %s for %s: %v", kind, g.pin, err)
		return
	}

	if g.host != nil {
		g.sendLocked(g.host, frame)
	}

	for _, p := range g.players.All() {
		if p.conn != nil {
			g.sendLocked(p.conn, frame)
		}
	}
}

func (g *Game) startLocked() {
	g.status = StatusStarted

	purged := g.players.PurgeUnconnected()
	g.opts.metrics.playersPurged(len(purged))

	g.logf("Game %s started with %d players (%d dropped)", g.pin, g.players.Len(), len(purged))

	g.broadcastLocked(KindGameStart, GameStartData{})

	g.startRoundLocked()
}

func (g *Game) startRoundLocked() {
	item, ok := g.bank.Next()
	if !ok {
		g.endLocked()
		return
	}

	g.status = StatusRound
	g.round++
	g.current = item

	g.answers.Reset()
	g.players.CreditAll(g.opts.stipend)
	g.opts.metrics.roundStarted()

	g.logf("Round %d of %s started", g.round, g.pin)

	g.broadcastLocked(KindRoundStart, RoundStartData{
		Question:        item.Question,
		Funds:           g.players.Funds(),
		DurationSeconds: seconds(g.opts.roundDuration),
	})

	round := g.round
	g.opts.schedule(g.opts.roundDuration, func() {
		g.endRound(round)
	})
}

// endRound settles the round armed as number round. Stale firings are no-ops.
func (g *Game) endRound(round int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusRound || g.round != round {
		return
	}

	winner, found := g.answers.Find(g.current.Answer)
	if found {
		for id, amount := range winner.Bets {
			if p, ok := g.players.Get(id); ok {
				p.Funds += 2 * amount
			}
		}
	}

	g.answers.Reset()

	final := g.bank.Remaining() == 0

	intermission := seconds(g.opts.intermission)
	if final {
		// The game ends here rather than idling in intermission until a
		// gameStart that would find no question left.
		intermission = 0
	} else {
		g.status = StatusIntermission
	}

	g.logf("Round %d of %s ended (correct answer suggested: %t)", round, g.pin, found)

	g.broadcastLocked(KindRoundEnd, RoundEndData{
		Answer:              g.current.Answer,
		Funds:               g.players.Funds(),
		IntermissionSeconds: intermission,
	})

	if final {
		g.endLocked()
	}
}

func (g *Game) endLocked() {
	g.status = StatusEnded
	g.opts.metrics.gameEnded()

	g.logf("Game %s ended after %d rounds in %s", g.pin, g.round, time.Since(g.createdAt).Round(time.Second))

	g.broadcastLocked(KindGameEnd, GameEndData{})
}

type role int

const (
	roleNone role = iota
	roleHost
	rolePlayer
)

// Connection binds one transport connection to a game. The transport feeds
// it every inbound text frame and reports when the connection closes.
type Connection struct {
	game     *Game
	conn     Conn
	role     role
	playerID string
	closed   bool
}

// Connect attaches c to the game. Nothing is sent until c identifies itself.
func (g *Game) Connect(c Conn) *Connection {
	g.opts.metrics.connOpened()

	return &Connection{game: g, conn: c}
}

// HandleText processes one inbound frame.
func (c *Connection) HandleText(frame []byte) {
	g := c.game

	g.mu.Lock()
	defer g.mu.Unlock()

	if c.closed {
		return
	}

	kind, raw, err := peekKind(frame)
	if err != nil {
		c.dropLocked("malformed frame")
		return
	}

	switch kind {
	case KindIdentify:
		c.identifyLocked(raw)
	case KindGameStart:
		c.gameStartLocked()
	case KindSuggestAnswer:
		c.suggestLocked(raw)
	case KindMakeBet:
		c.betLocked(raw)
	default:
		c.dropLocked("unexpected " + kind.String() + " frame")
	}
}

// HandleClose clears the connection's binding. The player record stays,
// marked as disconnected.
func (c *Connection) HandleClose() {
	g := c.game

	g.mu.Lock()
	defer g.mu.Unlock()

	c.detachLocked()
}

func (c *Connection) dropLocked(reason string) {
	c.game.logf("Closing connection to %s: %s", c.game.pin, reason)

	_ = c.conn.Close()
	c.detachLocked()
}

func (c *Connection) detachLocked() {
	if c.closed {
		return
	}
	c.closed = true

	g := c.game
	g.opts.metrics.connClosed()

	switch c.role {
	case roleHost:
		if g.host == c.conn {
			g.host = nil
		}
	case rolePlayer:
		if p, ok := g.players.Get(c.playerID); ok && p.conn == c.conn {
			p.conn = nil
			p.State = Disconnected

			g.logf("Player %q (%s) left %s", p.DisplayName, p.ID, g.pin)
		}
	}
}

func (c *Connection) replyLocked(kind Kind, data any) error {
	frame, err := Encode(kind, data)
	if err != nil {
		return err
	}

	return c.conn.Send(frame)
}

func (c *Connection) playerLocked() *Player {
	if c.role != rolePlayer {
		return nil
	}

	p, ok := c.game.players.Get(c.playerID)
	if !ok || p.conn != c.conn {
		return nil
	}

	return p
}

func (c *Connection) identifyLocked(raw json.RawMessage) {
	g := c.game

	if c.role != roleNone {
		c.dropLocked("already identified")
		return
	}

	token, err := decodeIdentify(raw)
	if err != nil {
		c.dropLocked("malformed identify")
		return
	}

	if token == g.hostToken {
		g.host = c.conn
		c.role = roleHost

		if err := c.replyLocked(KindReady, HostReadyData{Players: g.players.Views()}); err != nil {
			c.dropLocked("host ready failed")
		}

		return
	}

	p, ok := g.players.ByToken(token)
	if !ok || p.State != NeverConnected {
		c.dropLocked("unknown token")
		return
	}

	p.conn = c.conn
	p.State = Connected
	c.role = rolePlayer
	c.playerID = p.ID

	if err := c.replyLocked(KindReady, PlayerReadyData{Me: p.View()}); err != nil {
		c.dropLocked("player ready failed")
		return
	}

	g.logf("Player %q (%s) connected to %s", p.DisplayName, p.ID, g.pin)

	g.sendHostLocked(KindPlayerJoin, PlayerJoinData{Player: p.View()})
}

func (c *Connection) gameStartLocked() {
	g := c.game

	switch g.status {
	case StatusLobby:
		g.startLocked()
	case StatusIntermission:
		g.startRoundLocked()
	}
}

func (c *Connection) suggestLocked(raw json.RawMessage) {
	g := c.game

	text, err := decodeSuggestAnswer(raw)
	if err != nil {
		c.dropLocked("malformed suggestAnswer")
		return
	}

	p := c.playerLocked()
	if p == nil {
		c.dropLocked("suggestAnswer from unidentified connection")
		return
	}

	if g.status != StatusRound {
		return
	}

	a, ok := g.answers.Submit(text)
	if !ok {
		return
	}

	g.opts.metrics.answerSubmitted()

	g.logf("Player %q suggested %q in %s", p.DisplayName, a.Text, g.pin)

	g.broadcastLocked(KindAnswerUpdate, AnswerUpdateData{Answer: a.View()})
}

func (c *Connection) betLocked(raw json.RawMessage) {
	g := c.game

	id, amount, err := decodeMakeBet(raw)
	if err != nil {
		c.dropLocked("malformed makeBet")
		return
	}

	p := c.playerLocked()
	if p == nil {
		c.dropLocked("makeBet from unidentified connection")
		return
	}

	if g.status != StatusRound {
		return
	}

	a, ok := g.answers.PlaceBet(p, id, amount)
	if !ok {
		return
	}

	g.opts.metrics.betPlaced(amount)

	g.logf("Player %q bet %d on %q in %s", p.DisplayName, amount, a.Text, g.pin)

	g.broadcastLocked(KindAnswerUpdate, AnswerUpdateData{Answer: a.View()})
}
