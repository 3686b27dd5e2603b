package trivia

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

const (
	testRound = 45 * time.Second
	testGrace = 5 * time.Second
)

type testFrame struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	failSend bool
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failSend {
		return errors.New("send failed")
	}
	if c.closed {
		return errors.New("connection closed")
	}

	c.frames = append(c.frames, frame)

	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *fakeConn) received(t *testing.T) []testFrame {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]testFrame, 0, len(c.frames))
	for _, raw := range c.frames {
		var f testFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("decode frame %s: %v", raw, err)
		}
		out = append(out, f)
	}

	return out
}

func (c *fakeConn) kinds(t *testing.T) []Kind {
	t.Helper()

	var out []Kind
	for _, f := range c.received(t) {
		out = append(out, f.Type)
	}

	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = nil
}

// last decodes the payload of the most recent frame of the given kind.
func (c *fakeConn) last(t *testing.T, kind Kind, v any) {
	t.Helper()

	frames := c.received(t)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type != kind {
			continue
		}
		if err := json.Unmarshal(frames[i].Data, v); err != nil {
			t.Fatalf("decode %s payload: %v", kind, err)
		}
		return
	}

	t.Fatalf("no %s frame received; got %v", kind, c.kinds(t))
}

type pendingTimer struct {
	d time.Duration
	f func()
}

// fakeClock collects scheduled callbacks until a test fires them.
type fakeClock struct {
	mu      sync.Mutex
	pending []pendingTimer
}

func (c *fakeClock) schedule(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, pendingTimer{d: d, f: f})
}

// fire runs every pending timer armed for d and reports how many ran.
func (c *fakeClock) fire(d time.Duration) int {
	c.mu.Lock()
	var due []pendingTimer
	keep := c.pending[:0]
	for _, p := range c.pending {
		if p.d == d {
			due = append(due, p)
			continue
		}
		keep = append(keep, p)
	}
	c.pending = keep
	c.mu.Unlock()

	for _, p := range due {
		p.f()
	}

	return len(due)
}

func (c *fakeClock) count(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, p := range c.pending {
		if p.d == d {
			n++
		}
	}

	return n
}

// seqGenerator returns a Generator whose draws count upward.
func seqGenerator() *Generator {
	var mu sync.Mutex
	var n int64

	return &Generator{intn: func(max int64) int64 {
		mu.Lock()
		defer mu.Unlock()

		n++
		return n % max
	}}
}

// fixedIDGenerator always draws id 1000; every other draw counts upward.
func fixedIDGenerator() *Generator {
	seq := seqGenerator()

	return &Generator{intn: func(max int64) int64 {
		if max == idMax-idMin {
			return 0
		}
		return seq.intn(max)
	}}
}

// returnsWithin fails the test if f is still running after d.
func returnsWithin(t *testing.T, d time.Duration, f func()) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()

	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("call still running after %s", d)
	}
}

func newTestManager(t *testing.T, extra ...Option) (*Manager, *fakeClock) {
	t.Helper()

	clock := &fakeClock{}
	opts := append([]Option{
		WithScheduler(clock.schedule),
		WithRoundDuration(testRound),
		WithJoinGrace(testGrace),
		WithLogger(t.Logf),
	}, extra...)

	return NewManager(opts...), clock
}

func testItems(n int) []Item {
	items := make([]Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, Item{
			Question: fmt.Sprintf("Question %d is ____", i),
			Answer:   fmt.Sprintf("Answer%d", i),
		})
	}

	return items
}

func send(t *testing.T, c *Connection, kind Kind, data any) {
	t.Helper()

	frame, err := Encode(kind, data)
	if err != nil {
		t.Fatalf("encode %s: %v", kind, err)
	}

	c.HandleText(frame)
}

func identify(t *testing.T, c *Connection, token string) {
	t.Helper()

	send(t, c, KindIdentify, map[string]string{"token": token})
}

type testClient struct {
	id    string
	token string
	conn  *fakeConn
	link  *Connection
}

type testSession struct {
	manager *Manager
	game    *Game
	clock   *fakeClock
	host    *fakeConn
	hostLnk *Connection
	players []*testClient
}

func mustCreate(t *testing.T, m *Manager, items []Item) (pin, hostToken string) {
	t.Helper()

	pin, hostToken, err := m.Create(items)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	return pin, hostToken
}

// newTestSession creates a game, binds a host, and joins and connects n players.
func newTestSession(t *testing.T, items []Item, n int, extra ...Option) *testSession {
	t.Helper()

	m, clock := newTestManager(t, extra...)
	pin, hostToken := mustCreate(t, m, items)
	g, _ := m.Get(pin)

	s := &testSession{manager: m, game: g, clock: clock, host: &fakeConn{}}

	link, err := m.Attach(pin, s.host)
	if err != nil {
		t.Fatalf("attach host: %v", err)
	}
	s.hostLnk = link
	identify(t, link, hostToken)

	for i := 0; i < n; i++ {
		id, token, err := m.IssueJoin(pin)
		if err != nil {
			t.Fatalf("issue join: %v", err)
		}

		c := &testClient{id: id, token: token, conn: &fakeConn{}}
		c.link, err = m.Attach(pin, c.conn)
		if err != nil {
			t.Fatalf("attach player: %v", err)
		}
		identify(t, c.link, token)

		s.players = append(s.players, c)
	}

	return s
}

func mustAttach(t *testing.T, m *Manager, pin string, c Conn) *Connection {
	t.Helper()

	link, err := m.Attach(pin, c)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	return link
}

func (s *testSession) start(t *testing.T) {
	t.Helper()

	send(t, s.hostLnk, KindGameStart, GameStartData{})
}

func (s *testSession) resetFrames() {
	s.host.reset()
	for _, p := range s.players {
		p.conn.reset()
	}
}

func (s *testSession) suggest(t *testing.T, p *testClient, text string) {
	t.Helper()

	send(t, p.link, KindSuggestAnswer, map[string]string{"answer": text})
}

func (s *testSession) bet(t *testing.T, p *testClient, answerID string, amount int) {
	t.Helper()

	send(t, p.link, KindMakeBet, map[string]any{"id": answerID, "amount": amount})
}

func (s *testSession) answerID(t *testing.T, text string) string {
	t.Helper()

	s.game.mu.Lock()
	defer s.game.mu.Unlock()

	a, ok := s.game.answers.Find(text)
	if !ok {
		t.Fatalf("answer %q not in ledger", text)
	}

	return a.ID
}

func (s *testSession) funds(t *testing.T, p *testClient) int {
	t.Helper()

	funds, ok := s.game.Funds()[p.id]
	if !ok {
		t.Fatalf("player %s not registered", p.id)
	}

	return funds
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
