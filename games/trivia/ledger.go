/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalize maps text to the form used for case-insensitive comparison.
func normalize(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Answer is a guess submitted during the current round, with the funds
// wagered on it keyed by participant id.
type Answer struct {
	ID   string
	Text string
	Bets map[string]int

	key string
}

// Total is the sum of all wagers on the answer.
func (a *Answer) Total() int {
	total := 0
	for _, amount := range a.Bets {
		total += amount
	}

	return total
}

func (a *Answer) View() AnswerView {
	return AnswerView{
		ID:         a.ID,
		Answer:     a.Text,
		TotalFunds: a.Total(),
	}
}

// Ledger holds the distinct answers of one round.
type Ledger struct {
	ids     *Generator
	answers map[string]*Answer
	order   []string
}

func newLedger(ids *Generator) *Ledger {
	return &Ledger{
		ids:     ids,
		answers: make(map[string]*Answer),
	}
}

// Reset drops every answer and wager.
func (l *Ledger) Reset() {
	l.answers = make(map[string]*Answer)
	l.order = nil
}

func (l *Ledger) Len() int {
	return len(l.answers)
}

func (l *Ledger) Get(id string) (*Answer, bool) {
	a, ok := l.answers[id]

	return a, ok
}

// All returns the answers in submission order.
func (l *Ledger) All() []*Answer {
	out := make([]*Answer, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.answers[id])
	}

	return out
}

// Find returns the answer whose text matches s case-insensitively.
func (l *Ledger) Find(s string) (*Answer, bool) {
	key := normalize(s)

	for _, id := range l.order {
		if a := l.answers[id]; a.key == key {
			return a, true
		}
	}

	return nil, false
}

// Submit records a new answer. Blank text, text matching an existing
// answer and a round with no free answer id are rejected.
func (l *Ledger) Submit(text string) (*Answer, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	if _, exists := l.Find(text); exists {
		return nil, false
	}

	id, err := unique(l.ids.ID, func(id string) bool {
		_, taken := l.answers[id]
		return taken
	})
	if err != nil {
		return nil, false
	}

	a := &Answer{
		ID:   id,
		Text: text,
		Bets: make(map[string]int),
		key:  normalize(text),
	}

	l.answers[id] = a
	l.order = append(l.order, id)

	return a, true
}

// PlaceBet moves amount from the player's balance onto the answer. Repeated
// bets by the same player on the same answer accumulate.
func (l *Ledger) PlaceBet(p *Player, answerID string, amount int) (*Answer, bool) {
	if amount <= 0 || amount > p.Funds {
		return nil, false
	}

	a, ok := l.Get(answerID)
	if !ok {
		return nil, false
	}

	p.Funds -= amount
	a.Bets[p.ID] += amount

	return a, true
}
