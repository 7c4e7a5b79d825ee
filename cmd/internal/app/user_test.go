package app

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserPublicProjection(t *testing.T) {
	u := User{UserID: "u-1", Name: "ada", Password: "$argon2id$..."}

	pu := u.Public()
	if pu.ID != "u-1" || pu.Username != "ada" {
		t.Fatalf("pu=%+v", pu)
	}

	raw, err := json.Marshal(pu)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "argon2id") || strings.Contains(string(raw), "password") {
		t.Fatalf("projection leaked credential: %s", raw)
	}
}

func TestUserWithIDIsACopy(t *testing.T) {
	u := User{Name: "ada"}
	v := u.WithID("u-1")

	if u.UserID != "" {
		t.Fatalf("receiver mutated: %+v", u)
	}
	if v.UserID != "u-1" || v.Name != "ada" {
		t.Fatalf("v=%+v", v)
	}
}

func TestUserJSONOmitsEmptyID(t *testing.T) {
	raw, err := json.Marshal(User{Name: "ada"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), `"id"`) {
		t.Fatalf("empty id serialized: %s", raw)
	}
}
