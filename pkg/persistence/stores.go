// SPDX-License-Identifier: BSD-3-Clause

package persistence

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hyperfan/hyperfand/pkg/model"
)

// Settings is the daemon's top-level tunable configuration, persisted to
// settings.json.
type Settings struct {
	SchemaVersion    int     `json:"schema_version"`
	PollIntervalMS   int     `json:"poll_interval_ms"`
	GlobalMode       string  `json:"global_mode"` // "auto" | "manual"
	RateLimitPerWindow int   `json:"rate_limit_per_window"`
	ECDirectControl  bool    `json:"ec_direct_control"`
	ECAcknowledged   bool    `json:"ec_acknowledged"`
}

// SettingsSchemaVersion is bumped whenever the settings.json shape changes
// incompatibly.
const SettingsSchemaVersion = 1

// DefaultSettings matches the control loop's documented defaults.
func DefaultSettings() Settings {
	return Settings{
		SchemaVersion:      SettingsSchemaVersion,
		PollIntervalMS:     1000,
		GlobalMode:         "auto",
		RateLimitPerWindow: 4000,
	}
}

// CurveStoreSchemaVersion is bumped whenever curves.json's shape changes
// incompatibly.
const CurveStoreSchemaVersion = 1

// CurveStore is the persisted set of user-defined and built-in curves,
// keyed by UUID.
type CurveStore struct {
	SchemaVersion int                     `json:"schema_version"`
	Curves        map[string]model.Curve `json:"curves"`
}

// Store bundles the four on-disk JSON files under one config directory.
type Store struct {
	dir string
}

// New builds a Store rooted at dir (the result of ResolveConfigDir).
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// LoadSettings reads settings.json, returning DefaultSettings if absent.
func (s *Store) LoadSettings() (Settings, error) {
	var out Settings
	ok, err := s.loadJSON("settings.json", &out)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return DefaultSettings(), nil
	}
	return out, nil
}

// SaveSettings writes settings.json atomically.
func (s *Store) SaveSettings(v Settings) error {
	return s.saveJSON("settings.json", v)
}

// LoadCurves reads curves.json, returning an empty store (schema version
// set, no curves) if absent. Any pre-UUID identifiers found in legacy data
// are migrated to UUIDs in place.
func (s *Store) LoadCurves() (CurveStore, error) {
	var out CurveStore
	ok, err := s.loadJSON("curves.json", &out)
	if err != nil {
		return CurveStore{}, err
	}
	if !ok {
		return CurveStore{SchemaVersion: CurveStoreSchemaVersion, Curves: map[string]model.Curve{}}, nil
	}
	migrated := make(map[string]model.Curve, len(out.Curves))
	for key, c := range out.Curves {
		if _, err := uuid.Parse(key); err != nil {
			key = uuid.NewString()
			c.ID = key
		}
		migrated[key] = c
	}
	out.Curves = migrated
	return out, nil
}

// SaveCurves writes curves.json atomically.
func (s *Store) SaveCurves(v CurveStore) error {
	v.SchemaVersion = CurveStoreSchemaVersion
	return s.saveJSON("curves.json", v)
}

// LoadBindings reads bindings.json, returning an empty store if absent.
func (s *Store) LoadBindings() (model.BindingStore, error) {
	var out model.BindingStore
	ok, err := s.loadJSON("bindings.json", &out)
	if err != nil {
		return model.BindingStore{}, err
	}
	if !ok {
		return model.BindingStore{SchemaVersion: model.BindingStoreSchemaVersion}, nil
	}
	return out, nil
}

// SaveBindings writes bindings.json atomically.
func (s *Store) SaveBindings(v model.BindingStore) error {
	v.SchemaVersion = model.BindingStoreSchemaVersion
	return s.saveJSON("bindings.json", v)
}

// LoadFingerprints reads fingerprints.json, returning an empty store if
// absent.
func (s *Store) LoadFingerprints() (model.FingerprintStore, error) {
	var out model.FingerprintStore
	ok, err := s.loadJSON("fingerprints.json", &out)
	if err != nil {
		return model.FingerprintStore{}, err
	}
	if !ok {
		return model.FingerprintStore{
			SchemaVersion: model.FingerprintStoreSchemaVersion,
			Chips:         map[string]model.ChipFingerprint{},
			Channels:      map[string]model.ChannelFingerprint{},
		}, nil
	}
	return out, nil
}

// SaveFingerprints writes fingerprints.json atomically.
func (s *Store) SaveFingerprints(v model.FingerprintStore) error {
	v.SchemaVersion = model.FingerprintStoreSchemaVersion
	return s.saveJSON("fingerprints.json", v)
}

func (s *Store) loadJSON(name string, out any) (bool, error) {
	data, ok, err := ReadFileCapped(s.path(name))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrMalformedJSON, name, err)
	}
	return true, nil
}

func (s *Store) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return AtomicWriteFile(s.path(name), data, 0o600)
}

// GetOrCreatePersistentID reads a UUID from name under the store's
// directory, creating one if it doesn't already exist. Used for the
// daemon's own installation identity, independent of any chip or channel
// UUID.
func (s *Store) GetOrCreatePersistentID(name string) (string, error) {
	data, ok, err := ReadFileCapped(s.path(name))
	if err != nil {
		return "", err
	}
	if ok {
		if id, err := uuid.ParseBytes(trimNewline(data)); err == nil {
			return id.String(), nil
		}
	}

	id := uuid.New()
	if err := AtomicWriteFile(s.path(name), []byte(id.String()), 0o600); err != nil {
		return "", err
	}
	return id.String(), nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}
