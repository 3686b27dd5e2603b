/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrBadTemplate is returned when a trivia template cannot be parsed.
var ErrBadTemplate = errors.New("improperly formatted trivia template")

var answerSpan = regexp.MustCompile(`\{\{.*\}\}`)

// ParseTemplate turns a trivia template into question/answer pairs.
//
// Items are separated by a blank line. Each item marks its answer with
// {{answer}}; the question is the item text with that span replaced by one
// underscore per answer character.
func ParseTemplate(template string) ([]Item, error) {
	template = strings.ReplaceAll(template, "\r\n", "\n")

	var items []Item

	for i, block := range strings.Split(template, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}

		loc := answerSpan.FindStringIndex(block)
		if loc == nil {
			return nil, fmt.Errorf("%w: item %d has no {{answer}}", ErrBadTemplate, i+1)
		}

		answer := block[loc[0]+2 : loc[1]-2]
		if strings.TrimSpace(answer) == "" {
			return nil, fmt.Errorf("%w: item %d has an empty answer", ErrBadTemplate, i+1)
		}

		question := block[:loc[0]] + strings.Repeat("_", utf8.RuneCountInString(answer)) + block[loc[1]:]

		items = append(items, Item{
			Question: question,
			Answer:   answer,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrBadTemplate)
	}

	return items, nil
}
