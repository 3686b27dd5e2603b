/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import "time"

const (
	DefaultRoundDuration = 45 * time.Second
	DefaultIntermission  = 5 * time.Second
	DefaultJoinGrace     = 5 * time.Second
	DefaultStipend       = 500
)

// Scheduler runs f once after d has elapsed.
type Scheduler func(d time.Duration, f func())

func afterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

type options struct {
	roundDuration time.Duration
	intermission  time.Duration
	joinGrace     time.Duration
	stipend       int

	schedule Scheduler
	logf     func(format string, args ...any)
	metrics  *Metrics
	ids      *Generator
}

func defaultOptions() options {
	return options{
		roundDuration: DefaultRoundDuration,
		intermission:  DefaultIntermission,
		joinGrace:     DefaultJoinGrace,
		stipend:       DefaultStipend,
		schedule:      afterFunc,
		logf:          func(string, ...any) {},
		ids:           NewGenerator(),
	}
}

// Option configures a Manager and the games it creates.
type Option func(*options)

func WithRoundDuration(d time.Duration) Option {
	return func(o *options) { o.roundDuration = d }
}

func WithIntermission(d time.Duration) Option {
	return func(o *options) { o.intermission = d }
}

func WithJoinGrace(d time.Duration) Option {
	return func(o *options) { o.joinGrace = d }
}

// WithStipend sets the funds credited to every participant at round start.
func WithStipend(amount int) Option {
	return func(o *options) { o.stipend = amount }
}

// WithScheduler replaces time.AfterFunc for round and join grace timers.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.schedule = s }
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(o *options) { o.logf = logf }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithGenerator(g *Generator) Option {
	return func(o *options) { o.ids = g }
}
