/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"encoding/json"
	"errors"
)

// Kind identifies a message on the wire.
type Kind int

const (
	KindIdentify      Kind = 0
	KindReady         Kind = 1
	KindPlayerJoin    Kind = 2
	KindPlayerLeave   Kind = 3
	KindGameStart     Kind = 4
	KindRoundStart    Kind = 5
	KindSuggestAnswer Kind = 6
	KindAnswerUpdate  Kind = 7
	KindMakeBet       Kind = 8
	KindRescindBet    Kind = 9 // reserved, never handled
	KindRoundEnd      Kind = 10
	KindGameEnd       Kind = 11
)

var kindNames = map[Kind]string{
	KindIdentify:      "identify",
	KindReady:         "ready",
	KindPlayerJoin:    "playerJoin",
	KindPlayerLeave:   "playerLeave",
	KindGameStart:     "gameStart",
	KindRoundStart:    "roundStart",
	KindSuggestAnswer: "suggestAnswer",
	KindAnswerUpdate:  "answerUpdate",
	KindMakeBet:       "makeBet",
	KindRescindBet:    "rescindBet",
	KindRoundEnd:      "roundEnd",
	KindGameEnd:       "gameEnd",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

var errMissingField = errors.New("missing required field")

// Envelope is the frame every message travels in.
type Envelope struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

// inbound is the first-pass decode of a client frame.
type inbound struct {
	Type *Kind           `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PlayerView is the public record of a participant.
type PlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Funds       int    `json:"funds"`
}

// AnswerView is the public record of a submitted answer.
type AnswerView struct {
	ID         string `json:"id"`
	Answer     string `json:"answer"`
	TotalFunds int    `json:"totalFunds"`
}

// Client to server payloads. Pointer fields are required.

type IdentifyData struct {
	Token *string `json:"token"`
}

type SuggestAnswerData struct {
	Answer *string `json:"answer"`
}

type MakeBetData struct {
	ID     *string `json:"id"`
	Amount *int    `json:"amount"`
}

// Server to client payloads.

type PlayerReadyData struct {
	Me PlayerView `json:"me"`
}

type HostReadyData struct {
	Players []PlayerView `json:"players"`
}

type PlayerJoinData struct {
	Player PlayerView `json:"player"`
}

type PlayerLeaveData struct {
	Player PlayerView `json:"player"`
}

type GameStartData struct{}

type RoundStartData struct {
	Question        string         `json:"question"`
	Funds           map[string]int `json:"funds"`
	DurationSeconds int            `json:"durationSeconds"`
}

type AnswerUpdateData struct {
	Answer AnswerView `json:"answer"`
}

type RoundEndData struct {
	Answer              string         `json:"answer"`
	Funds               map[string]int `json:"funds"`
	IntermissionSeconds int            `json:"intermissionSeconds"`
}

type GameEndData struct{}

// Encode wraps data in an envelope of the given kind.
func Encode(kind Kind, data any) ([]byte, error) {
	return json.Marshal(Envelope{Type: kind, Data: data})
}

// peekKind reads the discriminant and leaves the payload undecoded.
func peekKind(frame []byte) (Kind, json.RawMessage, error) {
	var in inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return 0, nil, err
	}

	if in.Type == nil {
		return 0, nil, errMissingField
	}

	return *in.Type, in.Data, nil
}

func decodeIdentify(raw json.RawMessage) (string, error) {
	var d IdentifyData
	if err := decodeData(raw, &d); err != nil {
		return "", err
	}

	if d.Token == nil {
		return "", errMissingField
	}

	return *d.Token, nil
}

func decodeSuggestAnswer(raw json.RawMessage) (string, error) {
	var d SuggestAnswerData
	if err := decodeData(raw, &d); err != nil {
		return "", err
	}

	if d.Answer == nil {
		return "", errMissingField
	}

	return *d.Answer, nil
}

func decodeMakeBet(raw json.RawMessage) (string, int, error) {
	var d MakeBetData
	if err := decodeData(raw, &d); err != nil {
		return "", 0, err
	}

	if d.ID == nil || d.Amount == nil {
		return "", 0, errMissingField
	}

	return *d.ID, *d.Amount, nil
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errMissingField
	}

	return json.Unmarshal(raw, v)
}
