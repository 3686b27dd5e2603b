package trivia

import (
	"errors"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	template := "The tallest mountain is {{Everest}}.\n\n{{Canberra}} is the capital of Australia.\r\n\r\nCafé is spelled {{café}}\n\n\n"

	items, err := ParseTemplate(template)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []Item{
		{Question: "The tallest mountain is _______.", Answer: "Everest"},
		{Question: "________ is the capital of Australia.", Answer: "Canberra"},
		{Question: "Café is spelled ____", Answer: "café"},
	}

	if len(items) != len(want) {
		t.Fatalf("items = %d, want %d: %+v", len(items), len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestParseTemplateErrors(t *testing.T) {
	cases := []struct {
		name     string
		template string
	}{
		{"empty", ""},
		{"blank", "\n\n  \n\n"},
		{"no span", "What is the answer?"},
		{"empty span", "Nothing here: {{}}"},
		{"whitespace span", "Nothing here: {{   }}"},
		{"one bad item", "Fine {{ok}}\n\nBroken"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTemplate(tc.template)
			if !errors.Is(err, ErrBadTemplate) {
				t.Fatalf("err = %v, want ErrBadTemplate", err)
			}
		})
	}
}
