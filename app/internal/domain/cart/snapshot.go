package cart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SnapshotVersion is written into every persisted blob. Version 0 is the
// bare JSON array written before the envelope existed.
const SnapshotVersion = 1

type snapshotRecord struct {
	ID       string  `json:"id" validate:"required"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int64   `json:"quantity" validate:"gte=1"`
}

type snapshot struct {
	Version  int              `json:"version"`
	Products []snapshotRecord `json:"products" validate:"dive"`
}

var snapshotValidator = validator.New()

func EncodeSnapshot(c Collection) ([]byte, error) {
	snap := snapshot{
		Version:  SnapshotVersion,
		Products: make([]snapshotRecord, 0, len(c.entries)),
	}
	for _, e := range c.entries {
		snap.Products = append(snap.Products, snapshotRecord{
			ID:       e.ID,
			Title:    e.Title,
			ImageURL: e.ImageRef,
			Price:    e.UnitPrice,
			Quantity: e.Quantity,
		})
	}
	return json.Marshal(snap)
}

// DecodeSnapshot accepts both the versioned envelope and the legacy bare
// array. Any failure is reported as ErrCorruptSnapshot.
func DecodeSnapshot(blob []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 {
		return Collection{}, fmt.Errorf("%w: empty blob", ErrCorruptSnapshot)
	}

	var snap snapshot
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &snap.Products); err != nil {
			return Collection{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	} else {
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return Collection{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if snap.Version < 1 || snap.Version > SnapshotVersion {
			return Collection{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, snap.Version)
		}
	}

	if err := snapshotValidator.Struct(&snap); err != nil {
		return Collection{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	seen := make(map[string]struct{}, len(snap.Products))
	entries := make([]Entry, 0, len(snap.Products))
	for _, r := range snap.Products {
		if _, dup := seen[r.ID]; dup {
			return Collection{}, fmt.Errorf("%w: duplicate id %q", ErrCorruptSnapshot, r.ID)
		}
		seen[r.ID] = struct{}{}
		entries = append(entries, Entry{
			ID:        r.ID,
			Title:     r.Title,
			ImageRef:  r.ImageURL,
			UnitPrice: r.Price,
			Quantity:  r.Quantity,
		})
	}
	return Collection{entries: entries}, nil
}
