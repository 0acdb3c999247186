package bundle

import "testing"

func TestContentHashIgnoresKeyOrder(t *testing.T) {
	a := map[string]any{"key": "k", "name": "K", "sites": []any{"s1"}}
	b := map[string]any{"sites": []any{"s1"}, "name": "K", "key": "k"}

	ha, err := ContentHash(a)
	if err != nil {
		t.Fatalf("ContentHash failed: %v", err)
	}
	hb, err := ContentHash(b)
	if err != nil {
		t.Fatalf("ContentHash failed: %v", err)
	}
	if ha != hb {
		t.Fatalf("hashes differ for identical content: %s vs %s", ha, hb)
	}

	c := map[string]any{"key": "k", "name": "K2", "sites": []any{"s1"}}
	hc, _ := ContentHash(c)
	if hc == ha {
		t.Fatal("hash did not change with content")
	}
}

func TestShortDigest(t *testing.T) {
	d := ShortDigest("pv1", "feeds", "m1")
	if len(d) != 12 {
		t.Fatalf("digest length = %d, want 12", len(d))
	}
	if d != ShortDigest("pv1", "feeds", "m1") {
		t.Fatal("digest not deterministic")
	}
	// The separator keeps ("ab","c") distinct from ("a","bc").
	if ShortDigest("ab", "c") == ShortDigest("a", "bc") {
		t.Fatal("digest collides across part boundaries")
	}
}
