package ssh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKnownHostsAppend(t *testing.T) {
	dir := t.TempDir()
	kh := filepath.Join(dir, "known_hosts")
	priv := filepath.Join(dir, "id_ed25519")
	pub, err := GenerateEd25519Keypair(priv)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if err := AppendKnownHost(kh, "head.cluster.example", pub); err != nil {
		t.Fatalf("append known host: %v", err)
	}
	b, err := os.ReadFile(kh)
	if err != nil {
		t.Fatalf("read known_hosts: %v", err)
	}
	if !strings.Contains(string(b), "head.cluster.example") {
		t.Fatalf("expected host entry in known_hosts, got %q", b)
	}

	if _, err := LoadKnownHostsCallback(kh); err != nil {
		t.Fatalf("load callback: %v", err)
	}
}
