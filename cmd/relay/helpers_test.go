package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"insider-hq/relay/pkg/security/crypto"
)

// useConfig writes content to a temp config file and points cfgFile at it.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
	return path
}

// newTestCommand returns a command writing to buffers.
func newTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

// writeKeyFile writes a fresh key and returns its path and the service.
func writeKeyFile(t *testing.T) (string, *crypto.Service) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "relay.key")
	if err := os.WriteFile(path, []byte(crypto.EncodeKey(key)+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	svc, err := crypto.New(key)
	if err != nil {
		t.Fatal(err)
	}
	return path, svc
}
