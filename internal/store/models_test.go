package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseReview() Review {
	return Review{
		ID:       1,
		Text:     "Drink twice",
		Count:    1,
		Uses:     2,
		Rounds:   3,
		Personal: true,
		Remote:   false,
		Unique:   true,
		Note:     "clearer wording",
		Branch:   "v2",
	}
}

func TestContentEqualIgnoresGUID(t *testing.T) {
	a := baseReview()
	b := baseReview()
	a.GUID = "guid-a"
	b.GUID = "guid-b"

	assert.True(t, a.ContentEqual(b))
	assert.True(t, b.ContentEqual(a))
}

func TestContentEqualComparesEveryOtherField(t *testing.T) {
	mutations := map[string]func(*Review){
		"id":       func(r *Review) { r.ID = 2 },
		"text":     func(r *Review) { r.Text = "Drink thrice" },
		"count":    func(r *Review) { r.Count = 9 },
		"uses":     func(r *Review) { r.Uses = 0 },
		"rounds":   func(r *Review) { r.Rounds = 0 },
		"personal": func(r *Review) { r.Personal = false },
		"remote":   func(r *Review) { r.Remote = true },
		"unique":   func(r *Review) { r.Unique = false },
		"note":     func(r *Review) { r.Note = "" },
		"branch":   func(r *Review) { r.Branch = "master" },
	}
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			changed := baseReview()
			mutate(&changed)
			assert.False(t, baseReview().ContentEqual(changed))
		})
	}
}

func TestMatchesCard(t *testing.T) {
	card := Card{ID: 99, Text: "Drink twice", Count: 1, Uses: 2, Rounds: 3, Personal: true, Unique: true}
	review := baseReview()

	assert.True(t, review.MatchesCard(card), "id, note and branch are not compared")

	review.Rounds = 4
	assert.False(t, review.MatchesCard(card))
}
