package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "admin"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("%s: unexpected error %v", s, err)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("unknown role must be rejected")
	}
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", Username: "alice", PasswordHash: "$2a$secret", Role: RoleUser})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password hash leaked: %s", data)
	}
}

func TestRole_Satisfies(t *testing.T) {
	tests := []struct {
		have, need Role
		want       bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		{RoleAdmin, RoleUser, true},
		{Role(""), RoleUser, false},
		{RoleAdmin, Role("Admin"), false},
	}
	for _, tt := range tests {
		if got := tt.have.Satisfies(tt.need); got != tt.want {
			t.Errorf("%q.Satisfies(%q) = %v, want %v", tt.have, tt.need, got, tt.want)
		}
	}
}
