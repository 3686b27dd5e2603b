// Triviabox HTTP and WebSocket transport
//
// A host posts a trivia template and receives a game pin plus a host token.
// Players request a participant token for that pin, then everyone connects
// to the game's websocket and identifies with their token. The session
// engine in games/trivia drives the rounds; this file only moves frames.
//
// Features:
// - POST /api/games creates a game from a template
// - GET /api/games/:pin issues a participant id and token
// - GET /ws/games/:pin attaches a websocket to the game
// - GET /games/:pin/qr renders the join URL as a PNG, backed by go-qrcode
// - Slow clients are never waited on; frames to a full buffer are dropped

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/triviabox/games/trivia"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 4096
	sendBuffer   = 64
	qrSize       = 320
)

var (
	errClientClosed = errors.New("client closed")
	errSlowClient   = errors.New("client send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. It satisfies trivia.Conn.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// Send queues a frame without blocking.
func (c *Client) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return errSlowClient
	}
}

// Close stops the write pump, which then closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}

	return nil
}

func (c *Client) readPump(cfg *Config, link *trivia.Connection) {
	defer func() {
		link.HandleClose()
		_ = c.Close()
		_ = c.conn.Close()

		logf(cfg, "GAMES: Connection %s closed", c.id)
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(cfg, "GAMES: Connection %s read error: %v", c.id, err)
			}

			return
		}

		if kind != websocket.TextMessage {
			logf(cfg, "GAMES: Connection %s sent a non-text frame", c.id)

			return
		}

		link.HandleText(frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type createGameRequest struct {
	TriviaTemplate *string `json:"triviaTemplate"`
}

type createGameResponse struct {
	Pin   string `json:"pin"`
	Token string `json:"token"`
}

type joinGameResponse struct {
	Pin   string `json:"pin"`
	ID    string `json:"id"`
	Token string `json:"token"`
}

func serveCreateGame(cfg *Config, gm *trivia.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var req createGameRequest

		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, cfg.maxTemplate)).Decode(&req)

		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &tooLarge):
			writeError(cfg, w, http.StatusRequestEntityTooLarge,
				"template exceeds "+humanReadableSize(tooLarge.Limit), errs)

			return
		case err != nil:
			writeError(cfg, w, http.StatusBadRequest, "invalid request body", errs)

			return
		case req.TriviaTemplate == nil:
			writeError(cfg, w, http.StatusBadRequest, "missing triviaTemplate", errs)

			return
		}

		items, err := trivia.ParseTemplate(*req.TriviaTemplate)
		if err != nil {
			writeError(cfg, w, http.StatusBadRequest, err.Error(), errs)

			return
		}

		pin, token, err := gm.Create(items)
		if err != nil {
			writeError(cfg, w, http.StatusServiceUnavailable, err.Error(), errs)

			return
		}

		writeJSON(cfg, w, http.StatusOK, createGameResponse{Pin: pin, Token: token}, errs)

		logf(cfg, "SERVE: Created game %s with %d questions for %s in %s",
			pin,
			len(items),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveJoinGame(cfg *Config, gm *trivia.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		pin := ps.ByName("pin")

		id, token, err := gm.IssueJoin(pin)
		switch {
		case errors.Is(err, trivia.ErrNotFound):
			writeError(cfg, w, http.StatusNotFound, err.Error(), errs)

			return
		case errors.Is(err, trivia.ErrConflict):
			writeError(cfg, w, http.StatusConflict, err.Error(), errs)

			return
		case errors.Is(err, trivia.ErrExhausted):
			writeError(cfg, w, http.StatusServiceUnavailable, err.Error(), errs)

			return
		case err != nil:
			writeError(cfg, w, http.StatusInternalServerError, err.Error(), errs)

			return
		}

		writeJSON(cfg, w, http.StatusOK, joinGameResponse{Pin: pin, ID: id, Token: token}, errs)

		logf(cfg, "SERVE: Issued participant %s in game %s to %s", id, pin, realIP(r))
	}
}

func serveTriviaWS(cfg *Config, gm *trivia.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		pin := ps.ByName("pin")

		if _, ok := gm.Get(pin); !ok {
			writeError(cfg, w, http.StatusNotFound, trivia.ErrNotFound.Error(), errs)

			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade for game %s failed: %v", pin, err)

			return
		}

		client := newClient(conn)

		link, err := gm.Attach(pin, client)
		if err != nil {
			_ = conn.Close()

			return
		}

		logf(cfg, "GAMES: Connection %s from %s attached to game %s", client.id, realIP(r), pin)

		go client.writePump()
		client.readPump(cfg, link)
	}
}

func serveGamePage(cfg *Config, gm *trivia.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		pin := ps.ByName("pin")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		status, title := http.StatusOK, "Game "+pin
		if _, ok := gm.Get(pin); !ok {
			status, title = http.StatusNotFound, "Game not found"
		}

		w.WriteHeader(status)

		if _, err := io.WriteString(w, newPage(title, title)); err != nil {
			errs <- err
		}
	}
}

// qrHandler renders the game's join URL, derived from the request path.
func qrHandler(cfg *Config, gm *trivia.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := gm.Get(ps.ByName("pin")); !ok {
			writeError(cfg, w, http.StatusNotFound, trivia.ErrNotFound.Error(), errs)

			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			writeError(cfg, w, http.StatusInternalServerError, "qr generation failed", errs)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

// registerTriviaGame sets up routes so that:
//   - POST $prefix/api/games        → create a game from a template
//   - GET  $prefix/api/games/:pin   → issue a participant token
//   - GET  $prefix/ws/games/:pin    → websocket for that game
//   - GET  $prefix/games/:pin       → join page
//   - GET  $prefix/games/:pin/qr    → PNG QR code for the join page
func registerTriviaGame(cfg *Config, mux *httprouter.Router, gm *trivia.Manager, errs chan<- error) {
	mux.POST(cfg.prefix+"/api/games", serveCreateGame(cfg, gm, errs))
	mux.GET(cfg.prefix+"/api/games/:pin", serveJoinGame(cfg, gm, errs))

	mux.GET(cfg.prefix+"/ws/games/:pin", serveTriviaWS(cfg, gm, errs))

	mux.GET(cfg.prefix+"/games/:pin", serveGamePage(cfg, gm, errs))
	mux.GET(cfg.prefix+"/games/:pin/qr", qrHandler(cfg, gm, errs))
}
