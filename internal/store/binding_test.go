package store

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBindingRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	b := &Binding{
		ID:         "b1",
		Chord:      "C_major",
		PluginName: "sampler",
		ActionName: "play_chord",
		Config:     json.RawMessage(`{"sounds_dir":"/tmp"}`),
		Enabled:    true,
	}

	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.CreatedAt.IsZero() {
		t.Error("Create() should stamp CreatedAt")
	}

	got, err := repo.GetByID("b1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Chord != "C_major" || got.PluginName != "sampler" || !got.Enabled {
		t.Errorf("GetByID() = %+v", got)
	}
	if string(got.Config) != `{"sounds_dir":"/tmp"}` {
		t.Errorf("config = %s", got.Config)
	}

	got.Enabled = false
	got.ActionName = "play_strum"
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	updated, _ := repo.GetByID("b1")
	if updated.Enabled || updated.ActionName != "play_strum" {
		t.Errorf("Update() not persisted: %+v", updated)
	}

	if err := repo.Delete("b1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID("b1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_GetByChord(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	got, err := repo.GetByChord("G_major")
	if err != nil || got != nil {
		t.Fatalf("unbound chord: got %v, %v; want nil, nil", got, err)
	}

	repo.Create(&Binding{ID: "s1", Chord: StrumTarget, PluginName: "sampler", ActionName: "play_strum", Enabled: true})

	got, err = repo.GetByChord(StrumTarget)
	if err != nil {
		t.Fatalf("GetByChord() error = %v", err)
	}
	if got == nil || got.ID != "s1" {
		t.Errorf("GetByChord(strum) = %+v", got)
	}
	if string(got.Config) != "{}" {
		t.Errorf("empty config should be stored as {}, got %s", got.Config)
	}
}

func TestBindingRepository_Duplicate(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	if err := repo.Create(&Binding{ID: "a", Chord: "D_major", PluginName: "p", ActionName: "x"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(&Binding{ID: "b", Chord: "D_major", PluginName: "p", ActionName: "y"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second binding error = %v, want ErrDuplicate", err)
	}

	repo.Create(&Binding{ID: "c", Chord: "A_minor", PluginName: "p", ActionName: "x"})
	err = repo.Update(&Binding{ID: "c", Chord: "D_major", PluginName: "p", ActionName: "x"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("update onto bound chord error = %v, want ErrDuplicate", err)
	}
}

func TestBindingRepository_InvalidTarget(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	for _, target := range []string{"unknown", "B_flat", ""} {
		err := repo.Create(&Binding{ID: target + "-id", Chord: target, PluginName: "p", ActionName: "x"})
		if !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidTarget", target, err)
		}
	}
}

func TestBindingRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	if err := repo.Update(&Binding{ID: "missing", Chord: "C_major"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	bindings, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bindings) != 0 {
		t.Errorf("expected empty list, got %d", len(bindings))
	}

	for i, chord := range []string{"C_major", "G_major", StrumTarget} {
		repo.Create(&Binding{ID: string(rune('a' + i)), Chord: chord, PluginName: "sampler", ActionName: "play_chord"})
	}

	bindings, err = repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bindings) != 3 {
		t.Errorf("expected 3 bindings, got %d", len(bindings))
	}
}

func TestValidTarget(t *testing.T) {
	valid := []string{"C_major", "G_major", "D_major", "A_minor", "E_minor", "F_major", "strum"}
	for _, v := range valid {
		if !ValidTarget(v) {
			t.Errorf("ValidTarget(%q) = false", v)
		}
	}
	for _, v := range []string{"unknown", "c_major", "Strum"} {
		if ValidTarget(v) {
			t.Errorf("ValidTarget(%q) = true", v)
		}
	}
}
