// Package marker persists the "armed execution marker": the plan an operator
// is about to execute, together with who armed it. The execution view picks
// the marker up out of band; this service only ever writes the armed state
// and clears residue before re-arming.
package marker

import (
	"encoding/json"
	"errors"

	"github.com/peterbourgon/diskv/v3"
)

// Marker is the armed-execution payload.
type Marker struct {
	PlanID int    `json:"id"`
	User   string `json:"user"`
}

// valid rejects payloads that cannot identify a plan and an operator.
func (m Marker) valid() bool {
	return m.PlanID > 0 && m.User != ""
}

// Store abstracts marker persistence so tests can inject memory.
type Store interface {
	// Arm clears any residual marker and persists m.
	Arm(m Marker) error
	// Load returns the armed marker, or false when absent or malformed.
	Load() (Marker, bool)
	// Clear removes the marker; clearing an absent marker is not an error.
	Clear() error
}

const markerKey = "armed-execution"

type diskStore struct {
	d *diskv.Diskv
}

// NewDiskStore returns a Store backed by a diskv tree under basePath.
func NewDiskStore(basePath string) Store {
	return &diskStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 64 * 1024,
	})}
}

func (s *diskStore) Arm(m Marker) error {
	if !m.valid() {
		return errors.New("marker: refusing to arm an incomplete marker")
	}
	if err := s.Clear(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.d.Write(markerKey, data)
}

func (s *diskStore) Load() (Marker, bool) {
	data, err := s.d.Read(markerKey)
	if err != nil {
		return Marker{}, false
	}
	var m Marker
	// Corrupt persisted state reads as no marker at all.
	if err := json.Unmarshal(data, &m); err != nil || !m.valid() {
		return Marker{}, false
	}
	return m, true
}

func (s *diskStore) Clear() error {
	if !s.d.Has(markerKey) {
		return nil
	}
	return s.d.Erase(markerKey)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	m     Marker
	armed bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Arm(m Marker) error {
	if !m.valid() {
		return errors.New("marker: refusing to arm an incomplete marker")
	}
	s.m, s.armed = m, true
	return nil
}

func (s *MemStore) Load() (Marker, bool) { return s.m, s.armed }

func (s *MemStore) Clear() error {
	s.m, s.armed = Marker{}, false
	return nil
}
