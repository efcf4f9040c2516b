package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/karaoke/internal/shared"
)

func TestUser(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			email   string
			wantErr bool
		}{
			{email: "singer@example.com"},
			{email: "", wantErr: true},
			{email: "not-an-email", wantErr: true},
		}
		for _, tt := range tc {
			err := NewUser(1, tt.email, "").Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		u := NewUser(1, "singer@example.com", "Singer")
		u.SetID("u-1")
		data, err := json.Marshal(u)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"email":"singer@example.com"`) || !strings.Contains(string(data), `"id":"u-1"`) {
			t.Errorf("unexpected json %s", data)
		}
	})
}

func TestValidateNickname(t *testing.T) {
	if err := ValidateNickname("ab"); !errors.Is(err, shared.ErrNicknameShort) {
		t.Errorf("expected ErrNicknameShort, got %v", err)
	}
	if err := ValidateNickname("abc"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := ValidateNickname("가나다"); err != nil {
		t.Errorf("multibyte nickname of three runes should pass, got %v", err)
	}
}

func TestPlaylist(t *testing.T) {
	tc := map[string]string{
		"Friday Night Hits!": "friday-night-hits",
		"  90s -- Ballads ":  "90s-ballads",
		"Arirang":            "arirang",
	}
	for name, want := range tc {
		if got := Slugify(name); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", name, got, want)
		}
	}

	if err := NewPlaylist("", "Name").Validate(); err == nil {
		t.Error("expected error for missing owner")
	}
	if err := NewPlaylist("u-1", "!!!").Validate(); err == nil {
		t.Error("expected error for unsluggable name")
	}

	p := NewPlaylist("u-1", "Road Trip")
	track, _ := NewLocalTrack("/Music/a.mp3", "A", "")
	p.SetTracks([]Track{track})
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"slug":"road-trip"`) || !strings.Contains(string(data), `"sourceUrl":"/Music/a.mp3"`) {
		t.Errorf("unexpected json %s", data)
	}
}
