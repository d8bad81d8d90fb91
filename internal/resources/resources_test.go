package resources

import (
	"errors"
	"testing"

	"github.com/plumb-dev/plumb/pkg/api"
)

func i64(v int64) *int64 { return &v }
func ip(v int) *int      { return &v }

func TestValidate(t *testing.T) {
	ok := Request{Time: i64(3600), MinCores: 4, MaxCores: ip(8)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := Request{MinCores: 4, MaxCores: ip(2)}
	if err := bad.Validate(); !errors.Is(err, ErrCoreRange) {
		t.Fatalf("expected ErrCoreRange, got %v", err)
	}

	zero := Request{}
	if err := zero.Validate(); err == nil {
		t.Fatalf("min_cores of 0 should not validate")
	}
}

func TestFromSpec(t *testing.T) {
	r, err := FromSpec(api.ResourceSpec{MemBytes: i64(1 << 30)})
	if err != nil {
		t.Fatalf("FromSpec: %v", err)
	}
	if r.MinCores != 1 {
		t.Fatalf("expected min_cores default of 1, got %d", r.MinCores)
	}
	if r.Mem == nil || *r.Mem != 1<<30 {
		t.Fatalf("mem not carried over: %v", r.Mem)
	}

	if _, err := FromSpec(api.ResourceSpec{MinCores: 8, MaxCores: ip(4)}); !errors.Is(err, ErrCoreRange) {
		t.Fatalf("expected ErrCoreRange, got %v", err)
	}
}
