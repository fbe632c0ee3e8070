package listing

import (
	"encoding/json"
	"testing"

	"dgcreview/api/internal/store"
	"dgcreview/api/internal/textdiff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairsDropsOrphans(t *testing.T) {
	cards := []store.Card{{ID: 1, Text: "Drink"}, {ID: 2, Text: "Skip"}}
	reviews := []store.Review{
		{ID: 2, Text: "Skip twice", GUID: "b"},
		{ID: 9, Text: "Gone", GUID: "orphan"},
		{ID: 1, Text: "Drink twice", GUID: "a"},
	}

	pairs := Pairs(cards, reviews)
	require.Len(t, pairs, 2)
	assert.Equal(t, "b", pairs[0].Review.GUID)
	assert.Equal(t, 2, pairs[0].Card.ID)
	assert.Equal(t, "a", pairs[1].Review.GUID)
	assert.Equal(t, "Drink", pairs[1].Card.Text)
}

func TestPairsUsesFirstCardForRepeatedID(t *testing.T) {
	cards := []store.Card{{ID: 1, Text: "first"}, {ID: 1, Text: "second"}}
	pairs := Pairs(cards, []store.Review{{ID: 1, Text: "x"}})
	require.Len(t, pairs, 1)
	assert.Equal(t, "first", pairs[0].Card.Text)
}

func TestPairsEmpty(t *testing.T) {
	assert.Empty(t, Pairs(nil, nil))
	assert.Empty(t, Pairs([]store.Card{{ID: 1}}, nil))
}

func TestRowsTextUsesDiffer(t *testing.T) {
	rows := Rows(Pair{
		Card:   store.Card{ID: 1, Text: "Drink", Count: 1},
		Review: store.Review{ID: 1, Text: "Drink twice", Count: 1},
	})

	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []string{"Text", "Count", "Uses", "Rounds", "Personal", "Remote", "Unique"}, labels)

	text := rows[0]
	assert.True(t, text.Changed)
	assert.Equal(t, "Drink", text.Old)
	assert.Equal(t, "Drink"+textdiff.InsertionOpen+" twice"+textdiff.MarkerClose, text.New)
	assert.Equal(t, "Drink", string(text.OldHTML))

	for _, row := range rows[1:] {
		assert.False(t, row.Changed, "row %s", row.Label)
	}
}

func TestRowsFlagsChangedAttributes(t *testing.T) {
	rows := Rows(Pair{
		Card:   store.Card{ID: 1, Text: "Drink", Count: 1, Uses: 0, Remote: false},
		Review: store.Review{ID: 1, Text: "Drink", Count: 3, Uses: 0, Remote: true},
	})

	changed := map[string]Row{}
	for _, row := range rows {
		changed[row.Label] = row
	}
	assert.False(t, changed["Text"].Changed)
	assert.Equal(t, "Drink", changed["Text"].New)
	assert.True(t, changed["Count"].Changed)
	assert.Equal(t, "1", changed["Count"].Old)
	assert.Equal(t, "3", changed["Count"].New)
	assert.False(t, changed["Uses"].Changed)
	assert.True(t, changed["Remote"].Changed)
	assert.Equal(t, "false", changed["Remote"].Old)
	assert.Equal(t, "true", changed["Remote"].New)
	assert.NotContains(t, changed["Count"].New, textdiff.InsertionOpen)
}

func TestRowsEscapeHTML(t *testing.T) {
	rows := Rows(Pair{
		Card:   store.Card{ID: 1, Text: "<b>Drink</b>"},
		Review: store.Review{ID: 1, Text: "<b>Drink</b> & toast"},
	})
	assert.Contains(t, string(rows[0].OldHTML), "&lt;b&gt;")
	assert.NotContains(t, string(rows[0].NewHTML), "<b>")
	assert.Contains(t, string(rows[0].NewHTML), textdiff.InsertionOpen)
}

func TestItemsCarryReviewJSON(t *testing.T) {
	cards := []store.Card{{ID: 1, Text: "Drink", Count: 1}}
	reviews := []store.Review{{ID: 1, Text: "Drink twice", Count: 1, Note: "more fun", Branch: "v2", GUID: "g-1"}}

	items, err := Items(cards, reviews)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "g-1", items[0].GUID)
	assert.Len(t, items[0].Rows, 7)

	var decoded store.Review
	require.NoError(t, json.Unmarshal([]byte(items[0].JSON), &decoded))
	assert.Equal(t, reviews[0], decoded)
}
