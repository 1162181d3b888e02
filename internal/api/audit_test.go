package api

import (
	"net/http"
	"testing"

	"github.com/hearthlabs/hearth-core/internal/audit"
)

func TestAudit_LoginEventsRecorded(t *testing.T) {
	f, token := adminFixture(t)

	// A failed attempt for the same account.
	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "boss", "password": "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("failed login status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = f.do(t, http.MethodGet, "/api/v1/audit", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list audit status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	result := decode[audit.ListResult](t, w)
	if result.Total != 2 {
		t.Fatalf("total = %d, want 2", result.Total)
	}

	actions := map[string]bool{}
	for _, e := range result.Entries {
		actions[e.Action] = true
	}
	if !actions[audit.ActionLogin] || !actions[audit.ActionLoginFailed] {
		t.Errorf("actions = %v, want both login and login_failed", actions)
	}
	for _, e := range result.Entries {
		if e.Username != "boss" {
			t.Errorf("entry %s username = %q, want boss", e.ID, e.Username)
		}
		if e.RemoteAddr == "" {
			t.Errorf("entry %s has empty remote addr", e.ID)
		}
	}
}

func TestAudit_ActionFilter(t *testing.T) {
	f, token := adminFixture(t)

	f.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "boss", "password": "nope-nope-nope"})

	w := f.do(t, http.MethodGet, "/api/v1/audit?action=login_failed", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	result := decode[audit.ListResult](t, w)
	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}
	if result.Entries[0].Action != audit.ActionLoginFailed {
		t.Errorf("action = %q, want %q", result.Entries[0].Action, audit.ActionLoginFailed)
	}
}

func TestAudit_UserManagementRecorded(t *testing.T) {
	f, token := adminFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users", token,
		map[string]string{"username": "newbie", "password": "long-enough-pass"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/v1/audit?action=user_created", token, nil)
	result := decode[audit.ListResult](t, w)
	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}

	entry := result.Entries[0]
	if entry.Username != "boss" {
		t.Errorf("username = %q, want boss (the acting admin)", entry.Username)
	}
	if entry.Details["created_username"] != "newbie" {
		t.Errorf("details.created_username = %v, want newbie", entry.Details["created_username"])
	}
}

func TestAudit_RequiresUserRead(t *testing.T) {
	f, token := deviceAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/audit", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAudit_InvalidLimit(t *testing.T) {
	f, token := adminFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/audit?limit=abc", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
