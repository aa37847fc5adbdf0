package cache

import "testing"

func TestFingerprintStableUnderKeyOrder(t *testing.T) {
	a := []byte(`{"b":1,"a":2,"nested":{"y":1,"x":2}}`)
	b := []byte(`{"a":2,"nested":{"x":2,"y":1},"b":1}`)

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint(a) error = %v", err)
	}
	fb, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint(b) error = %v", err)
	}
	if fa != fb {
		t.Errorf("Fingerprint should be stable under object key reordering: %s != %s", fa, fb)
	}
}

func TestFingerprintDiffersOnContentChange(t *testing.T) {
	fa, _ := Fingerprint([]byte(`{"task":"a"}`))
	fb, _ := Fingerprint([]byte(`{"task":"b"}`))
	if fa == fb {
		t.Error("expected different fingerprints for different content")
	}
}
