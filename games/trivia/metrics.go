/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "triviabox"

// Metrics counts engine activity. A nil *Metrics records nothing.
type Metrics struct {
	GamesCreated     prometheus.Counter
	GamesEnded       prometheus.Counter
	PlayersJoined    prometheus.Counter
	PlayersPurged    prometheus.Counter
	RoundsStarted    prometheus.Counter
	AnswersSubmitted prometheus.Counter
	BetsPlaced       prometheus.Counter
	FundsWagered     prometheus.Counter
	Connections      prometheus.Gauge
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GamesCreated:     newCounter("games_created_total", "Total trivia games created"),
		GamesEnded:       newCounter("games_ended_total", "Total trivia games that ran out of questions"),
		PlayersJoined:    newCounter("players_joined_total", "Total join tokens issued"),
		PlayersPurged:    newCounter("players_purged_total", "Total participants dropped for never connecting"),
		RoundsStarted:    newCounter("rounds_started_total", "Total rounds started"),
		AnswersSubmitted: newCounter("answers_submitted_total", "Total distinct answers accepted"),
		BetsPlaced:       newCounter("bets_placed_total", "Total bets accepted"),
		FundsWagered:     newCounter("funds_wagered_total", "Total funds moved onto answers"),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Currently attached connections",
		}),
	}

	reg.MustRegister(
		m.GamesCreated,
		m.GamesEnded,
		m.PlayersJoined,
		m.PlayersPurged,
		m.RoundsStarted,
		m.AnswersSubmitted,
		m.BetsPlaced,
		m.FundsWagered,
		m.Connections,
	)

	return m
}

func (m *Metrics) gameCreated() {
	if m != nil {
		m.GamesCreated.Inc()
	}
}

func (m *Metrics) gameEnded() {
	if m != nil {
		m.GamesEnded.Inc()
	}
}

func (m *Metrics) playerJoined() {
	if m != nil {
		m.PlayersJoined.Inc()
	}
}

func (m *Metrics) playersPurged(n int) {
	if m != nil {
		m.PlayersPurged.Add(float64(n))
	}
}

func (m *Metrics) roundStarted() {
	if m != nil {
		m.RoundsStarted.Inc()
	}
}

func (m *Metrics) answerSubmitted() {
	if m != nil {
		m.AnswersSubmitted.Inc()
	}
}

func (m *Metrics) betPlaced(amount int) {
	if m != nil {
		m.BetsPlaced.Inc()
		m.FundsWagered.Add(float64(amount))
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}
