/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
	"strconv"
)

// ErrExhausted means no free identifier was found in the allowed draws.
var ErrExhausted = errors.New("identifier space exhausted")

// maxDraws bounds unique; callers hold a game lock while drawing.
const maxDraws = 64

// Identifier ranges are half-open: [min, max).
const (
	pinMin   = 100_000
	pinMax   = 1_000_000
	idMin    = 1_000
	idMax    = 10_000
	tokenMin = 100_000_000_000
	tokenMax = 1_000_000_000_000
)

var displayNameAdjectives = []string{
	"crispy",
	"cheesy",
	"sweet",
	"salty",
	"toasty",
	"savory",
	"obsolete",
	"audacious",
	"ambitious",
	"altruistic",
	"meddling",
	"surprising",
	"glorified",
	"exalted",
	"pretentious",
	"auspicious",
	"intelligent",
	"perfect",
	"clueless",
	"clumsy",
	"terrible",
	"unqualified",
	"troubled",
}

var displayNameNouns = []string{
	"banana",
	"pineapple",
	"pomegranate",
	"plum",
	"grapefruit",
	"monkey",
	"zebra",
	"lion",
	"cheetah",
	"octopus",
	"squid",
	"yeti",
	"bear",
	"king",
	"queen",
	"pessimist",
	"optimist",
	"scientist",
	"artist",
	"doctor",
	"dentist",
	"musician",
	"engineer",
	"architect",
	"author",
	"guesser",
	"jester",
	"charlatan",
	"critic",
	"connoisseur",
	"entrepreneur",
	"mathematician",
	"salesperson",
	"clerk",
	"priest",
	"actor",
	"thinker",
	"proletariat",
	"bourgeoisie",
}

// Generator produces pins, ids, tokens and display names.
type Generator struct {
	intn func(n int64) int64
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{intn: cryptoIntn}
}

func cryptoIntn(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return v.Int64()
}

func (g *Generator) between(min, max int64) int64 {
	return min + g.intn(max-min)
}

// Pin returns a six digit session pin.
func (g *Generator) Pin() string {
	return strconv.FormatInt(g.between(pinMin, pinMax), 10)
}

// ID returns a four digit identifier for participants and answers.
func (g *Generator) ID() string {
	return strconv.FormatInt(g.between(idMin, idMax), 10)
}

// Token returns an opaque bearer token: a twelve digit number, base64 encoded.
func (g *Generator) Token() string {
	n := strconv.FormatInt(g.between(tokenMin, tokenMax), 10)

	return base64.StdEncoding.EncodeToString([]byte(n))
}

// DisplayName returns an "adjective noun" pair.
func (g *Generator) DisplayName() string {
	adjective := displayNameAdjectives[g.intn(int64(len(displayNameAdjectives)))]
	noun := displayNameNouns[g.intn(int64(len(displayNameNouns)))]

	return adjective + " " + noun
}

// unique draws from next until taken reports the value as free, giving up
// with ErrExhausted after maxDraws attempts.
func unique(next func() string, taken func(string) bool) (string, error) {
	for i := 0; i < maxDraws; i++ {
		v := next()
		if !taken(v) {
			return v, nil
		}
	}

	return "", ErrExhausted
}
