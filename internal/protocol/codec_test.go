package protocol

import (
	"strings"
	"testing"
)

func TestParseAndAccessors(t *testing.T) {
	m, err := Parse(`{"type":"login","username":"alice","password":"pw","remember":true,"participants":["u1","u2"]}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if m.Type() != "login" {
		t.Fatalf("Type: got %q", m.Type())
	}
	if v, ok := m.String("username"); !ok || v != "alice" {
		t.Fatalf("String(username): got %q ok=%v", v, ok)
	}
	if _, ok := m.String("missing"); ok {
		t.Fatal("String reported a missing field as present")
	}
	if b, ok := m.Bool("remember"); !ok || !b {
		t.Fatalf("Bool(remember): got %v ok=%v", b, ok)
	}
	if _, ok := m.Bool("username"); ok {
		t.Fatal("Bool accepted a string field")
	}
	if list, ok := m.StringList("participants"); !ok || len(list) != 2 || list[0] != "u1" {
		t.Fatalf("StringList(participants): got %v ok=%v", list, ok)
	}
}

func TestParseMalformedFrame(t *testing.T) {
	for _, frame := range []string{"", "not json", `{"type":`, `[1,2,3]`} {
		if _, err := Parse(frame); err == nil {
			t.Fatalf("Parse(%q) should have failed", frame)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	contents := []string{
		`with "quotes" inside`,
		`back\slash and \\double`,
		"line\nbreaks\r\nand\ttabs",
		"control \x01\x02 chars and unicode é世",
		strings.Repeat(`"\`, 50),
	}

	for _, content := range contents {
		frame, err := Encode(NewMessageEvent("u1", content, "c1"))
		if err != nil {
			t.Fatalf("Encode failed for %q: %v", content, err)
		}
		if strings.ContainsAny(frame, "\n\r") {
			t.Fatalf("encoded frame contains raw newline: %q", frame)
		}

		m, err := Parse(frame)
		if err != nil {
			t.Fatalf("Parse failed for %q: %v", content, err)
		}
		got, ok := m.String("content")
		if !ok || got != content {
			t.Fatalf("round trip mismatch: got %q want %q", got, content)
		}
	}
}

func TestEncodeErrorFrame(t *testing.T) {
	frame, err := Encode(NewError(CodeInvalidArgs, "'username' required"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	m, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Type() != "error" {
		t.Fatalf("error frame type: got %q", m.Type())
	}
	if code, ok := m.String("code"); !ok || code != CodeInvalidArgs {
		t.Fatalf("error frame code: got %q ok=%v", code, ok)
	}
}
