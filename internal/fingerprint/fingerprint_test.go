package fingerprint

import (
	"strings"
	"testing"
)

func TestDigestDeterminism(t *testing.T) {
	values := []string{"/data/subj01", "3", "true"}
	a := Digest(values)
	b := Digest(values)
	if a != b {
		t.Fatalf("digest not stable: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(a))
	}
}

func TestDigestSensitivity(t *testing.T) {
	base := Digest([]string{"a", "b", "c"})
	if Digest([]string{"a", "b", "d"}) == base {
		t.Fatalf("changing a value did not change the digest")
	}
	if Digest([]string{"b", "a", "c"}) == base {
		t.Fatalf("reordering values did not change the digest")
	}
}

func TestWorkDirName(t *testing.T) {
	digest := Digest([]string{"a"})
	name := WorkDirName("plumb", "alice", digest, "try2")
	want := "_plumb_alice_" + digest[:8] + "_try2"
	if name != want {
		t.Fatalf("got %q, want %q", name, want)
	}

	// Changing only the suffix must change only the suffix segment.
	other := WorkDirName("plumb", "alice", digest, "try3")
	if !strings.HasPrefix(other, "_plumb_alice_"+digest[:8]+"_") {
		t.Fatalf("suffix change altered more than the suffix: %q", other)
	}
	if other == name {
		t.Fatalf("different suffixes produced the same name")
	}
}

func TestWorkDirNameEmptySuffix(t *testing.T) {
	digest := Digest([]string{"a"})
	name := WorkDirName("plumb", "alice", digest, "")
	if !strings.HasSuffix(name, "_") {
		t.Fatalf("empty suffix should leave a trailing underscore: %q", name)
	}
}

func BenchmarkDigest(b *testing.B) {
	values := []string{"/data/study/subj01", "/data/study/subj02", "42", "true", "linear"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Digest(values)
	}
}
