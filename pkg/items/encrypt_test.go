package items

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/security/crypto"
)

func testCrypto(t *testing.T) *crypto.Service {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	svc, err := crypto.New(key)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestSealDetails(t *testing.T) {
	svc := testCrypto(t)

	got, err := SealDetails(map[string]any{
		"_token":         "sk-live",
		"_token@encrypt": true,
		"blank":          "  ",
		"blank@encrypt":  "true",
		"done":           "enc_already",
		"done@encrypt":   true,
		"plain":          "visible",
		"plain@encrypt":  false,
		"absent@encrypt": true,
	}, svc)
	if err != nil {
		t.Fatalf("SealDetails() error = %v", err)
	}

	for k := range got {
		if strings.HasSuffix(k, EncryptSuffix) {
			t.Errorf("flag %q must be removed", k)
		}
	}
	if got["plain"] != "visible" || got["blank"] != "  " || got["done"] != "enc_already" {
		t.Errorf("unflagged or skipped values changed: %v", got)
	}
	if _, ok := got["absent"]; ok {
		t.Error("flag for a missing field must not create it")
	}

	token, _ := got["_token"].(string)
	if !crypto.IsSealed(token) {
		t.Fatalf("_token not sealed: %q", token)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, crypto.EncryptedPrefix))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := svc.Decrypt(raw)
	if err != nil || string(plain) != "sk-live" {
		t.Errorf("Decrypt() = %q, %v", plain, err)
	}
}

func TestSealDetails_Errors(t *testing.T) {
	if _, err := SealDetails(map[string]any{"k": "v", "k@encrypt": true}, nil); !errors.Is(err, ErrEncryptionUnavailable) {
		t.Errorf("expected ErrEncryptionUnavailable, got %v", err)
	}
	if _, err := SealDetails(map[string]any{"k": 42.0, "k@encrypt": true}, testCrypto(t)); err == nil {
		t.Error("expected error for non-string field")
	}
	got, err := SealDetails(map[string]any{"k": "v"}, nil)
	if err != nil || got["k"] != "v" {
		t.Errorf("nothing flagged needs no key: %v, %v", got, err)
	}
	if got, err := SealDetails(nil, nil); got != nil || err != nil {
		t.Errorf("SealDetails(nil) = %v, %v", got, err)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	disabled := false

	if err := s.Put(ctx, &Item{Path: "tools/edited", Title: "runtime edit"}); err != nil {
		t.Fatal(err)
	}

	seeds := []config.ItemSeed{
		{Path: "tools/edited", Title: "from config"},
		{Path: "tools/new", Title: "New", Details: map[string]any{"_token": "sk", "_token@encrypt": true}},
		{Path: "providers/off", Enabled: &disabled},
	}
	added, err := Seed(ctx, s, seeds, testCrypto(t))
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}

	edited, _ := s.Get(ctx, "tools/edited")
	if edited.Title != "runtime edit" {
		t.Error("seed overwrote an existing item")
	}
	fresh, _ := s.Get(ctx, "tools/new")
	if !fresh.Enabled || !crypto.IsSealed(fresh.Detail(TokenDetail)) {
		t.Errorf("seeded item = %+v", fresh)
	}
	off, _ := s.Get(ctx, "providers/off")
	if off.Enabled {
		t.Error("enabled: false was ignored")
	}

	if _, err := Seed(ctx, s, []config.ItemSeed{{Path: "bad"}}, nil); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}
