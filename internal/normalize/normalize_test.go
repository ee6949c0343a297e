package normalize

import "testing"

func TestUsername(t *testing.T) {
	in := "  Alice "
	want := "Alice"
	if got := Username(in); got != want {
		t.Fatalf("normalize.Username(%q) = %q, want %q", in, got, want)
	}
}

func TestEmail(t *testing.T) {
	in := "  John.DOE@Example.COM  "
	want := "john.doe@example.com"
	if got := Email(in); got != want {
		t.Fatalf("normalize.Email(%q) = %q, want %q", in, got, want)
	}
}
