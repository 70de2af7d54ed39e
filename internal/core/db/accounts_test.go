package db

import (
	"testing"

	"github.com/seckatie/linkindex/internal/errors"
)

// TestListAdministrators tests superuser enumeration.
func TestListAdministrators(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	t.Run("empty directory", func(t *testing.T) {
		admins, err := db.ListAdministrators()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(admins) != 0 {
			t.Errorf("expected no admins, got %d", len(admins))
		}
	})

	t.Run("only superusers ordered by username", func(t *testing.T) {
		for _, a := range []struct {
			name  string
			super bool
		}{{"zoe", true}, {"bob", false}, {"alice", true}} {
			if _, err := db.CreateAccount(a.name, a.name+"@example.com", a.super); err != nil {
				t.Fatalf("failed to create account %s: %v", a.name, err)
			}
		}

		admins, err := db.ListAdministrators()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(admins) != 2 {
			t.Fatalf("expected 2 admins, got %d", len(admins))
		}
		if admins[0].Username != "alice" || admins[1].Username != "zoe" {
			t.Errorf("unexpected order: %s, %s", admins[0].Username, admins[1].Username)
		}
		if !admins[0].IsSuperuser {
			t.Error("expected IsSuperuser to be true")
		}
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		_, err := db.CreateAccount("alice", "", false)
		if !errors.IsConstraintViolation(err) {
			t.Errorf("expected constraint violation, got %v", err)
		}
	})

	t.Run("blank username is rejected", func(t *testing.T) {
		if _, err := db.CreateAccount("  ", "", true); err == nil {
			t.Error("expected error for blank username")
		}
	})
}
