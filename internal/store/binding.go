package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/airguitar/internal/gesture"
)

// StrumTarget is the binding target for strum events.
const StrumTarget = "strum"

// ErrInvalidTarget is returned when a binding names neither a known chord nor StrumTarget.
var ErrInvalidTarget = errors.New("binding target must be a known chord or \"strum\"")

// Binding ties a chord (or strums) to a plugin action.
type Binding struct {
	ID         string
	Chord      string
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// ValidTarget reports whether target can be bound.
func ValidTarget(target string) bool {
	if target == StrumTarget {
		return true
	}
	c, err := gesture.ParseChord(target)
	return err == nil && c.Known()
}

// BindingRepository provides CRUD operations for chord bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, chord, plugin_name, action_name, config, enabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*Binding, error) {
	b := &Binding{}
	var config string
	var enabled int

	if err := row.Scan(&b.ID, &b.Chord, &b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt); err != nil {
		return nil, err
	}

	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

func configText(config json.RawMessage) string {
	if len(config) == 0 {
		return "{}"
	}
	return string(config)
}

// Create inserts a new binding. A second binding for the same chord returns ErrDuplicate.
func (r *BindingRepository) Create(b *Binding) error {
	if !ValidTarget(b.Chord) {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, b.Chord)
	}

	b.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO chord_bindings (`+bindingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Chord, b.PluginName, b.ActionName, configText(b.Config), b.Enabled, b.CreatedAt,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("binding for %s: %w", b.Chord, ErrDuplicate)
	}
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(
		`SELECT `+bindingColumns+` FROM chord_bindings WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByChord retrieves the binding for a chord label or StrumTarget.
// Returns nil, nil if nothing is bound.
func (r *BindingRepository) GetByChord(chord string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(
		`SELECT `+bindingColumns+` FROM chord_bindings WHERE chord = ?`, chord,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// List retrieves all bindings, newest first.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT ` + bindingColumns + ` FROM chord_bindings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update replaces an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	if !ValidTarget(b.Chord) {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, b.Chord)
	}

	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE chord_bindings SET chord = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.Chord, b.PluginName, b.ActionName, configText(b.Config), enabled, b.ID,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("binding for %s: %w", b.Chord, ErrDuplicate)
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM chord_bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
