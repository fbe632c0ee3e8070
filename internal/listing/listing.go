// Package listing assembles the maintainer view: every pending review paired
// with the card it edits, broken down into one row per attribute.
package listing

import (
	"encoding/json"
	"html"
	"html/template"
	"strconv"

	"dgcreview/api/internal/store"
	"dgcreview/api/internal/textdiff"
)

type Pair struct {
	Card   store.Card
	Review store.Review
}

// Row is one attribute of a pair. Old and New hold the plain values (the
// annotated strings for text); OldHTML and NewHTML are safe to embed.
type Row struct {
	Label   string
	Old     string
	New     string
	Changed bool
	OldHTML template.HTML
	NewHTML template.HTML
}

type Item struct {
	Card   store.Card
	Review store.Review
	GUID   string
	JSON   string
	Rows   []Row
}

// Pairs matches each review with the card sharing its id. Reviews whose card
// no longer exists are dropped; review order is kept.
func Pairs(cards []store.Card, reviews []store.Review) []Pair {
	byID := make(map[int]store.Card, len(cards))
	for _, card := range cards {
		if _, seen := byID[card.ID]; !seen {
			byID[card.ID] = card
		}
	}
	result := make([]Pair, 0, len(reviews))
	for _, review := range reviews {
		card, ok := byID[review.ID]
		if !ok {
			continue
		}
		result = append(result, Pair{Card: card, Review: review})
	}
	return result
}

func Rows(p Pair) []Row {
	oldText, newText := textdiff.Diff(p.Card.Text, p.Review.Text)
	oldHTML, newHTML := textdiff.DiffHTML(p.Card.Text, p.Review.Text)
	rows := []Row{{
		Label:   "Text",
		Old:     oldText,
		New:     newText,
		Changed: p.Card.Text != p.Review.Text,
		OldHTML: oldHTML,
		NewHTML: newHTML,
	}}

	plain := []struct {
		label    string
		old, new string
	}{
		{"Count", strconv.FormatUint(uint64(p.Card.Count), 10), strconv.FormatUint(uint64(p.Review.Count), 10)},
		{"Uses", strconv.Itoa(p.Card.Uses), strconv.Itoa(p.Review.Uses)},
		{"Rounds", strconv.Itoa(p.Card.Rounds), strconv.Itoa(p.Review.Rounds)},
		{"Personal", strconv.FormatBool(p.Card.Personal), strconv.FormatBool(p.Review.Personal)},
		{"Remote", strconv.FormatBool(p.Card.Remote), strconv.FormatBool(p.Review.Remote)},
		{"Unique", strconv.FormatBool(p.Card.Unique), strconv.FormatBool(p.Review.Unique)},
	}
	for _, item := range plain {
		rows = append(rows, Row{
			Label:   item.label,
			Old:     item.old,
			New:     item.new,
			Changed: item.old != item.new,
			OldHTML: template.HTML(html.EscapeString(item.old)),
			NewHTML: template.HTML(html.EscapeString(item.new)),
		})
	}
	return rows
}

func Items(cards []store.Card, reviews []store.Review) ([]Item, error) {
	pairs := Pairs(cards, reviews)
	items := make([]Item, 0, len(pairs))
	for _, p := range pairs {
		raw, err := json.Marshal(p.Review)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			Card:   p.Card,
			Review: p.Review,
			GUID:   p.Review.GUID,
			JSON:   string(raw),
			Rows:   Rows(p),
		})
	}
	return items, nil
}
