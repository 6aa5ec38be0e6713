// Package slotcodec encodes the marker slot into a self-describing byte format.
//
// Both codecs write an ordered array of records with the field names id, lat,
// lng, type, createdAt and expiresAt. A record without expiresAt decodes with
// ExpiresAt == 0; the caller recomputes it from createdAt and the TTL.
package slotcodec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/samirrijal/fadepin/internal/core/domain"
)

// Codec converts a marker sequence to and from its durable representation.
// Decode fails outright only when the container cannot be parsed. Records
// that cannot be read are skipped; the readable markers are returned together
// with a *PartialError listing the skipped ones.
type Codec interface {
	Name() string
	Encode(markers []domain.Marker) ([]byte, error)
	Decode(data []byte) ([]domain.Marker, error)
}

// RecordError describes one record that could not be decoded.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// PartialError is returned by Decode alongside the readable markers when some
// records were skipped.
type PartialError struct {
	Skipped []RecordError
}

func (e *PartialError) Error() string {
	if len(e.Skipped) == 1 {
		return "skipped 1 unreadable record: " + e.Skipped[0].Error()
	}
	return fmt.Sprintf("skipped %d unreadable records, first: %v", len(e.Skipped), e.Skipped[0])
}

type record struct {
	ID        string  `json:"id" cbor:"id"`
	Lat       float64 `json:"lat" cbor:"lat"`
	Lng       float64 `json:"lng" cbor:"lng"`
	Type      string  `json:"type" cbor:"type"`
	CreatedAt int64   `json:"createdAt" cbor:"createdAt"`
	ExpiresAt int64   `json:"expiresAt,omitempty" cbor:"expiresAt,omitempty"`
}

// New returns the codec registered under name ("json" or "cbor").
func New(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "cbor":
		return NewCBOR()
	default:
		return nil, fmt.Errorf("unknown slot codec %q", name)
	}
}

func toRecords(markers []domain.Marker) []record {
	out := make([]record, 0, len(markers))
	for _, m := range markers {
		out = append(out, record{
			ID:        m.ID,
			Lat:       m.Lat,
			Lng:       m.Lng,
			Type:      m.Type.String(),
			CreatedAt: m.CreatedAt,
			ExpiresAt: m.ExpiresAt,
		})
	}
	return out
}

func fromRecords(records []record) ([]domain.Marker, error) {
	out := make([]domain.Marker, 0, len(records))
	var skipped []RecordError
	for i, r := range records {
		if r.ID == "" {
			skipped = append(skipped, RecordError{Index: i, Err: errors.New("missing id")})
			continue
		}
		t, err := domain.ParseMarkerType(r.Type)
		if err != nil {
			skipped = append(skipped, RecordError{Index: i, ID: r.ID, Err: err})
			continue
		}
		out = append(out, domain.Marker{
			ID:        r.ID,
			Lat:       r.Lat,
			Lng:       r.Lng,
			Type:      t,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
		})
	}
	if len(skipped) > 0 {
		return out, &PartialError{Skipped: skipped}
	}
	return out, nil
}

// JSON is the default codec, compatible with the browser-era storage format.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Encode(markers []domain.Marker) ([]byte, error) {
	return json.Marshal(toRecords(markers))
}

func (JSON) Decode(data []byte) ([]domain.Marker, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode json slot: %w", err)
	}
	return fromRecords(records)
}

// CBOR encodes the slot with deterministic CBOR.
type CBOR struct {
	enc cbor.EncMode
}

// NewCBOR builds a CBOR codec using core deterministic encoding.
func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor enc mode: %w", err)
	}
	return &CBOR{enc: enc}, nil
}

func (c *CBOR) Name() string { return "cbor" }

func (c *CBOR) Encode(markers []domain.Marker) ([]byte, error) {
	return c.enc.Marshal(toRecords(markers))
}

func (c *CBOR) Decode(data []byte) ([]domain.Marker, error) {
	var records []record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode cbor slot: %w", err)
	}
	return fromRecords(records)
}
