package items

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewEntry(t *testing.T) {
	it := &Item{
		Path:    "tools/summarize",
		ID:      "summarize",
		Enabled: false,
		Icon:    "text",
		Details: map[string]any{
			"prompt":  "Summarize",
			"_token":  "enc_secret",
			".state":  "x",
			"path":    "must not shadow",
			"ordinal": 99,
			"":        "empty key",
		},
	}

	e := NewEntry(it, 3)

	want := map[string]any{
		"path":    "tools/summarize",
		"id":      "summarize",
		"enabled": false,
		"icon":    "text",
		"ordinal": 3,
		"prompt":  "Summarize",
		"":        "empty key",
	}
	if len(e) != len(want) {
		t.Errorf("entry = %v, want %v", e, want)
	}
	for k, v := range want {
		if e[k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, e[k], v)
		}
	}
	for _, hidden := range []string{"_token", ".state", "type", "title"} {
		if _, ok := e[hidden]; ok {
			t.Errorf("entry must not contain %q", hidden)
		}
	}
}

func TestBuildListing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, it := range []*Item{
		{Path: "tools/b", Enabled: true},
		{Path: "providers/openai", Enabled: true, Details: map[string]any{"_token": "sk"}},
		{Path: "tools/a", Enabled: true},
		{Path: "other/ignored"},
	} {
		if err := s.Put(ctx, it); err != nil {
			t.Fatal(err)
		}
	}

	l, err := BuildListing(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Tools) != 2 || l.Tools[0]["path"] != "tools/b" || l.Tools[1]["ordinal"] != 1 {
		t.Errorf("tools = %v", l.Tools)
	}
	if len(l.Providers) != 1 || l.Providers[0]["ordinal"] != 0 {
		t.Errorf("providers = %v", l.Providers)
	}

	b, _ := json.Marshal(l)
	var decoded map[string][]map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, leaked := decoded["providers"][0]["_token"]; leaked {
		t.Error("token leaked into listing")
	}
}

func TestBuildListing_EmptyKindsAreArrays(t *testing.T) {
	l, err := BuildListing(context.Background(), NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(l)
	if string(b) != `{"tools":[],"providers":[]}` {
		t.Errorf("listing = %s", b)
	}
}

type failingLister struct{}

func (failingLister) List(context.Context, string) ([]*Item, error) {
	return nil, errors.New("backend down")
}

func TestBuildListing_Error(t *testing.T) {
	if _, err := BuildListing(context.Background(), failingLister{}); err == nil {
		t.Error("expected error")
	}
}
