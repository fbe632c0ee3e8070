// Package review decides whether a proposed card edit is accepted, records
// accepted edits and removes them again once a maintainer is done.
package review

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"dgcreview/api/internal/listing"
	"dgcreview/api/internal/logging"
	"dgcreview/api/internal/store"

	"github.com/google/uuid"
)

var (
	ErrDuplicateReview = errors.New("duplicate review")
	ErrNotFound        = errors.New("review not found")
)

type dataStore interface {
	LoadCards(context.Context) ([]store.Card, error)
	LoadReviews(context.Context) ([]store.Review, error)
	UpdateReviews(context.Context, func([]store.Review) ([]store.Review, error)) error
	EnsureInitialized(context.Context, store.Collection) error
}

type Service struct {
	store   dataStore
	log     logging.Logger
	newGUID func() string
}

type Option func(*Service)

// WithGUIDSource replaces the uuid generator.
func WithGUIDSource(fn func() string) Option {
	return func(s *Service) { s.newGUID = fn }
}

func New(st dataStore, log logging.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		log:     log,
		newGUID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit accepts r unless an existing review has the same content or r would
// leave its card unchanged. The accepted review carries a fresh guid; any guid
// sent by the client is ignored.
func (s *Service) Submit(ctx context.Context, r store.Review) (store.Review, error) {
	r.GUID = ""
	var accepted store.Review
	err := s.store.UpdateReviews(ctx, func(reviews []store.Review) ([]store.Review, error) {
		cards, err := s.store.LoadCards(ctx)
		if err != nil {
			return nil, err
		}
		if reason := rejection(r, reviews, cards); reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReview, reason)
		}

		accepted = r
		accepted.GUID = s.newGUID()
		return append(reviews, accepted), nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateReview) {
			s.log.Info(ctx, "review rejected", "card", r.ID, "reason", err.Error())
		} else {
			s.log.Error(ctx, "submit review failed", "card", r.ID, "err", err)
		}
		return store.Review{}, err
	}
	s.log.Info(ctx, "review accepted", "card", accepted.ID, "guid", accepted.GUID, "branch", accepted.Branch)
	return accepted, nil
}

func rejection(r store.Review, reviews []store.Review, cards []store.Card) string {
	for _, existing := range reviews {
		if existing.ContentEqual(r) {
			return "an identical review is already pending"
		}
	}
	for _, card := range cards {
		if card.ID == r.ID && r.MatchesCard(card) {
			return "review does not change the card"
		}
	}
	return ""
}

// Delete drops the review with the given guid. An unknown guid is not an
// error and leaves the collection as it was.
func (s *Service) Delete(ctx context.Context, guid string) error {
	removed := 0
	err := s.store.UpdateReviews(ctx, func(reviews []store.Review) ([]store.Review, error) {
		kept := reviews[:0:0]
		for _, r := range reviews {
			if guid != "" && r.GUID == guid {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	if err != nil {
		s.log.Error(ctx, "delete review failed", "guid", guid, "err", err)
		return err
	}
	s.log.Info(ctx, "review deleted", "guid", guid, "removed", removed)
	return nil
}

func (s *Service) Get(ctx context.Context, guid string) (store.Review, error) {
	reviews, err := s.store.LoadReviews(ctx)
	if err != nil {
		return store.Review{}, err
	}
	for _, r := range reviews {
		if guid != "" && r.GUID == guid {
			return r, nil
		}
	}
	return store.Review{}, fmt.Errorf("%w: %s", ErrNotFound, guid)
}

// List pairs every pending review with its card. Missing collections are
// created empty on this path only; malformed content is still an error.
func (s *Service) List(ctx context.Context) ([]listing.Item, error) {
	cards, err := loadOrInit(ctx, s, store.CollectionCards, s.store.LoadCards)
	if err != nil {
		return nil, err
	}
	reviews, err := loadOrInit(ctx, s, store.CollectionReviews, s.store.LoadReviews)
	if err != nil {
		return nil, err
	}
	return listing.Items(cards, reviews)
}

func loadOrInit[T any](ctx context.Context, s *Service, c store.Collection, load func(context.Context) (T, error)) (T, error) {
	value, err := load(ctx)
	if err == nil || !errors.Is(err, store.ErrContentUnavailable) || !errors.Is(err, fs.ErrNotExist) {
		return value, err
	}
	s.log.Warn(ctx, "collection missing, creating it", "collection", string(c))
	if err := s.store.EnsureInitialized(ctx, c); err != nil {
		var zero T
		return zero, err
	}
	return load(ctx)
}
