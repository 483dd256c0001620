package checksum

import "testing"

func TestDocumentID_Deterministic(t *testing.T) {
	a := DocumentID("Pay yourself first.")
	b := DocumentID("Pay yourself first.")
	if a != b {
		t.Fatalf("ids differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
	if DocumentID("Pay yourself last.") == a {
		t.Error("different content should yield a different id")
	}
}
