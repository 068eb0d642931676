package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/ayusman/airguitar/internal/gesture"
)

// thresholdsPrefix namespaces classifier thresholds in the settings table.
const thresholdsPrefix = "thresholds."

// SettingsRepository reads and writes key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// LoadThresholds overlays stored thresholds onto defaults.
// Keys that were never saved keep their default; the result is validated.
func (r *SettingsRepository) LoadThresholds(defaults gesture.Thresholds) (gesture.Thresholds, error) {
	all, err := r.All()
	if err != nil {
		return defaults, err
	}

	raw := make(map[string]interface{})
	for key, value := range all {
		if name, ok := strings.CutPrefix(key, thresholdsPrefix); ok {
			raw[name] = value
		}
	}

	th := defaults
	if len(raw) == 0 {
		return th, nil
	}

	if err := mapstructure.WeakDecode(raw, &th); err != nil {
		return defaults, fmt.Errorf("decode stored thresholds: %w", err)
	}
	if err := th.Validate(); err != nil {
		return defaults, fmt.Errorf("stored thresholds: %w", err)
	}

	return th, nil
}

// SaveThresholds validates th and stores every field in one transaction.
func (r *SettingsRepository) SaveThresholds(th gesture.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}

	var fields map[string]interface{}
	if err := mapstructure.Decode(th, &fields); err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for name, value := range fields {
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("threshold %s: unexpected type %T", name, value)
		}
		_, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			thresholdsPrefix+name, strconv.FormatFloat(f, 'g', -1, 64),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
