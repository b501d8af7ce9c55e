package domain

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Cat is the public projection of a shelter animal, as returned to callers.
type Cat struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	BreedName    string       `json:"breed_name"`
	BreedID      uuid.UUID    `json:"breed_id"`
	BreedPhoto   string       `json:"breed_photo"`
	CatPhoto     string       `json:"cat_photo"`
	AddedBy      uuid.UUID    `json:"added_by"`
	Price        int64        `json:"price"`
	PriceHistory []PricePoint `json:"price_history"`
}

// PricePoint is one entry of a breed's sale price history.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price int64     `json:"price"`
}

// SortPriceHistory orders price points ascending by date, in place.
func SortPriceHistory(points []PricePoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}

// StoredCat is the record persisted in the cat collection. It augments the
// public Cat with storage-only state: who favorited it and when it was added.
type StoredCat struct {
	Cat
	FavoritedBy UserSet   `json:"favorited_by"`
	AddedAt     time.Time `json:"added_at"`
}

// RecordID implements storage.Record.
func (c *StoredCat) RecordID() uuid.UUID { return c.ID }

// Public returns the caller-facing projection of the record.
func (c *StoredCat) Public() Cat { return c.Cat }

// UserSet is a set of user ids. Add and Remove are idempotent.
type UserSet map[uuid.UUID]struct{}

// NewUserSet creates a set containing the given ids.
func NewUserSet(ids ...uuid.UUID) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s UserSet) Add(id uuid.UUID)           { s[id] = struct{}{} }
func (s UserSet) Remove(id uuid.UUID)        { delete(s, id) }
func (s UserSet) Contains(id uuid.UUID) bool { _, ok := s[id]; return ok }
func (s UserSet) Len() int                   { return len(s) }

// MarshalJSON encodes the set as a sorted array of ids so the persisted
// form is deterministic.
func (s UserSet) MarshalJSON() ([]byte, error) {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return json.Marshal(ids)
}

// UnmarshalJSON decodes an array of ids into a set.
func (s *UserSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewUserSet(ids...)
	return nil
}

// AddCatRequest carries the caller-supplied fields for registering a cat.
type AddCatRequest struct {
	Name  string `json:"name"`
	Breed string `json:"breed"`
	Photo string `json:"photo"`
}

// Bill is the billing subsystem's receipt for a completed sale. The zero
// value is a valid empty bill.
type Bill struct {
	ProductID uuid.UUID `json:"product_id"`
	Amount    int64     `json:"amount"`
}

// Product is the billing subsystem's view of a sellable item. It shares its
// id with the corresponding cat record.
type Product struct {
	ID      uuid.UUID `json:"id"`
	BreedID uuid.UUID `json:"breed_id"`
}

// BreedInfo is the catalog subsystem's metadata for a breed.
type BreedInfo struct {
	BreedID   uuid.UUID `json:"breed_id"`
	BreedName string    `json:"breed_name"`
	Photo     string    `json:"photo"`
}

// AuthResult is the authorization subsystem's verdict on a session. It is
// produced fresh per call and never persisted.
type AuthResult struct {
	Success bool
	UserID  uuid.UUID
}
