package ssh

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	xssh "golang.org/x/crypto/ssh"
)

func testSigner(t *testing.T) xssh.Signer {
	t.Helper()
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if _, err := GenerateEd25519Keypair(keyPath); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	signer, err := LoadPrivateKeySigner(keyPath)
	if err != nil {
		t.Fatalf("load signer: %v", err)
	}
	return signer
}

// A listener that accepts and then stalls keeps the handshake pending, so a
// canceled context must win the race and Dial must not hang.
func TestDialCanceledContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	c := &Client{
		Addr:       ln.Addr().String(),
		User:       "submit",
		Signer:     testSigner(t),
		KnownHosts: func(string, net.Addr, xssh.PublicKey) error { return nil },
		Timeout:    time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Dial(ctx, c); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClientConfigRequired(t *testing.T) {
	c := &Client{Addr: "head:22", User: "submit"}
	if _, err := c.makeConfig(); err == nil {
		t.Fatalf("missing signer should be rejected")
	}
	c.Signer = testSigner(t)
	if _, err := c.makeConfig(); err == nil {
		t.Fatalf("missing host key callback should be rejected")
	}
}
