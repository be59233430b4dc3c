package hooks

import (
	"net/url"
	"sync"
	"testing"
)

func TestRegisterAndFetch(t *testing.T) {
	registry = sync.Map{}
	h := Hooks{CachePolicy: BypassPrefixes("/me")}
	if err := Register("test", h); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, ok := Fetch("TEST"); !ok {
		t.Fatalf("expected fetch ok")
	}
	if Status("test") != "registered" {
		t.Fatalf("expected registered status")
	}
	if Status("missing") != "missing" {
		t.Fatalf("expected missing status")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	registry = sync.Map{}
	if err := Register("dup", Hooks{}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := Register("dup", Hooks{}); err != ErrDuplicateHook {
		t.Fatalf("expected ErrDuplicateHook, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	registry = sync.Map{}
	_ = Register("a", Hooks{})
	snap := Snapshot([]string{"a", "b"})
	if snap["a"] != "registered" {
		t.Fatalf("expected a registered, got %s", snap["a"])
	}
	if snap["b"] != "missing" {
		t.Fatalf("expected b missing, got %s", snap["b"])
	}
}

func TestBypassPrefixes(t *testing.T) {
	policy := BypassPrefixes("/session", "/payroll")
	cases := map[string]bool{
		"/session":         false,
		"/session/current": false,
		"/sessions":        true,
		"/payroll/2024":    false,
		"/employees":       true,
	}
	for path, allow := range cases {
		got := policy(&RequestContext{}, path, CachePolicy{AllowCache: true})
		if got.AllowCache != allow {
			t.Fatalf("%s: expected AllowCache=%v", path, allow)
		}
	}
}

func TestDropParams(t *testing.T) {
	query, _ := url.ParseQuery("_=1700000000&page=2&t=9")
	got := DropParams("_", "t")(&RequestContext{}, "/leads", query)
	if got.Encode() != "page=2" {
		t.Fatalf("unexpected query %s", got.Encode())
	}
}
