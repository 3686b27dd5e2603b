/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

// Item is one question with its answer span already masked.
type Item struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Bank is a forward-only cursor over a fixed sequence of items.
type Bank struct {
	items []Item
	next  int
}

func newBank(items []Item) *Bank {
	return &Bank{items: append([]Item(nil), items...)}
}

// Next advances the cursor. It reports false once the sequence is exhausted.
func (b *Bank) Next() (Item, bool) {
	if b.next >= len(b.items) {
		return Item{}, false
	}

	item := b.items[b.next]
	b.next++

	return item, true
}

// Remaining is the number of items not yet handed out.
func (b *Bank) Remaining() int {
	return len(b.items) - b.next
}

// Served is the number of items handed out so far.
func (b *Bank) Served() int {
	return b.next
}
