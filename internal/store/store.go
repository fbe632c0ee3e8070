package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Locker grants exclusive access to a named collection. The returned context
// is live only while access is held; the returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, name string) (context.Context, func(), error)
}

// Store persists the card and review collections. Every write runs under the
// collection's lock; reads take no lock because Blobs replace content
// atomically.
type Store struct {
	blobs  Blobs
	locker Locker
}

func New(blobs Blobs, locker Locker) *Store {
	return &Store{blobs: blobs, locker: locker}
}

func (s *Store) LoadCards(ctx context.Context) ([]Card, error) {
	cards := []Card{}
	if err := s.load(ctx, CollectionCards, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []Card{}
	}
	return cards, nil
}

func (s *Store) LoadReviews(ctx context.Context) ([]Review, error) {
	reviews := []Review{}
	if err := s.load(ctx, CollectionReviews, &reviews); err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return reviews, nil
}

func (s *Store) SaveReviews(ctx context.Context, reviews []Review) error {
	held, unlock, err := s.lock(ctx, CollectionReviews)
	if err != nil {
		return err
	}
	defer unlock()
	return s.save(held, CollectionReviews, reviews)
}

func (s *Store) SaveCards(ctx context.Context, cards []Card) error {
	held, unlock, err := s.lock(ctx, CollectionCards)
	if err != nil {
		return err
	}
	defer unlock()
	if cards == nil {
		cards = []Card{}
	}
	return s.save(held, CollectionCards, cards)
}

// UpdateReviews loads the review collection, passes it to fn and saves the
// result, holding the collection lock for the whole cycle. Nothing is written
// when fn returns an error or when the lock is lost before the save.
func (s *Store) UpdateReviews(ctx context.Context, fn func([]Review) ([]Review, error)) error {
	held, unlock, err := s.lock(ctx, CollectionReviews)
	if err != nil {
		return err
	}
	defer unlock()

	reviews, err := s.LoadReviews(held)
	if err != nil {
		return err
	}
	updated, err := fn(reviews)
	if err != nil {
		return err
	}
	return s.save(held, CollectionReviews, updated)
}

// EnsureInitialized creates the collection holding an empty array when it
// does not exist yet. Existing content is left alone.
func (s *Store) EnsureInitialized(ctx context.Context, c Collection) error {
	held, unlock, err := s.lock(ctx, c)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.blobs.Read(held, c)
	if err == nil {
		return nil
	}
	if !isNotExist(err) {
		return fmt.Errorf("initialize %s: %w: %w", c, ErrContentUnavailable, err)
	}
	if err := context.Cause(held); err != nil {
		return fmt.Errorf("initialize %s: %w", c, err)
	}
	if err := s.blobs.Write(held, c, []byte("[]")); err != nil {
		return fmt.Errorf("initialize %s: %w: %w", c, ErrContentUnavailable, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, c Collection, target any) error {
	data, err := s.blobs.Read(ctx, c)
	if err != nil {
		return fmt.Errorf("load %s: %w: %w", c, ErrContentUnavailable, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("load %s: %w: %v", c, ErrContentMalformed, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, c Collection, value any) error {
	if reviews, ok := value.([]Review); ok && reviews == nil {
		value = []Review{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	// ctx is the lock's held context here; once it ends the lock may
	// belong to another writer.
	if err := context.Cause(ctx); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	if err := s.blobs.Write(ctx, c, data); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return fmt.Errorf("save %s: %w", c, cause)
		}
		return fmt.Errorf("save %s: %w: %w", c, ErrContentUnavailable, err)
	}
	return nil
}

func (s *Store) lock(ctx context.Context, c Collection) (context.Context, func(), error) {
	held, unlock, err := s.locker.Lock(ctx, string(c))
	if err != nil {
		return nil, nil, fmt.Errorf("lock %s: %w", c, err)
	}
	return held, unlock, nil
}
