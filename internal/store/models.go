package store

// Card is a canonical deck entry. The review service never edits cards; they
// are written only by content sync.
type Card struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Count    uint32 `json:"count"`
	Uses     int    `json:"uses"`
	Rounds   int    `json:"rounds"`
	Personal bool   `json:"personal"`
	Remote   bool   `json:"remote"`
	Unique   bool   `json:"unique"`
}

// Review is a proposed edit to the card with the same ID. GUID stays empty
// until the review is accepted.
type Review struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Count    uint32 `json:"count"`
	Uses     int    `json:"uses"`
	Rounds   int    `json:"rounds"`
	Personal bool   `json:"personal"`
	Remote   bool   `json:"remote"`
	Unique   bool   `json:"unique"`
	Note     string `json:"note"`
	Branch   string `json:"branch"`
	GUID     string `json:"guid,omitempty"`
}

// ContentEqual reports whether two reviews carry the same submission. The
// guid is not part of the content.
func (r Review) ContentEqual(other Review) bool {
	return r.ID == other.ID &&
		r.Text == other.Text &&
		r.Count == other.Count &&
		r.Uses == other.Uses &&
		r.Rounds == other.Rounds &&
		r.Personal == other.Personal &&
		r.Remote == other.Remote &&
		r.Unique == other.Unique &&
		r.Note == other.Note &&
		r.Branch == other.Branch
}

// MatchesCard reports whether applying the review to card would change
// nothing. ID is the linkage key and is not compared.
func (r Review) MatchesCard(card Card) bool {
	return r.Text == card.Text &&
		r.Count == card.Count &&
		r.Uses == card.Uses &&
		r.Rounds == card.Rounds &&
		r.Personal == card.Personal &&
		r.Remote == card.Remote &&
		r.Unique == card.Unique
}

// Collection names one of the two persisted JSON arrays.
type Collection string

const (
	CollectionCards   Collection = "cards"
	CollectionReviews Collection = "reviews"
)
