package upstream

import (
	"testing"
	"time"
)

func TestNewClientUsesTimeout(t *testing.T) {
	if client := NewClient(45 * time.Second); client.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", client.Timeout)
	}
	if client := NewClient(0); client.Timeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %s", client.Timeout)
	}
}
