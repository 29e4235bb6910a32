package codec

import (
	"testing"
	"unicode/utf8"
)

func TestBase64Obfuscator_RoundTrip(t *testing.T) {
	c := NewBase64Obfuscator()
	inputs := []string{
		"",
		" ",
		"hello",
		"  padded with spaces  ",
		"line one\nline two\ttab",
		"Привет, мир",
		"こんにちは世界",
		"emoji 🎉👍🏽",
		"a=b&c=d+e/f",
	}

	for _, in := range inputs {
		encoded := c.Encode(in)
		if in != "" && encoded == in {
			t.Errorf("encoding should change %q", in)
		}
		decoded, err := c.Decode(encoded)
		if err != nil {
			t.Fatalf("decode %q: %v", in, err)
		}
		if decoded != in {
			t.Errorf("round trip mismatch: got %q, want %q", decoded, in)
		}
	}
}

func TestBase64Obfuscator_KnownValue(t *testing.T) {
	if got := NewBase64Obfuscator().Encode("hi"); got != "aGk=" {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestBase64Obfuscator_RejectsCorruptInput(t *testing.T) {
	c := NewBase64Obfuscator()
	for _, bad := range []string{"not base64!", "aGk", "//79"} {
		if _, err := c.Decode(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func FuzzBase64Obfuscator(f *testing.F) {
	f.Add("seed")
	f.Add("")
	f.Fuzz(func(t *testing.T, in string) {
		if !utf8.ValidString(in) {
			t.Skip()
		}
		c := NewBase64Obfuscator()
		out, err := c.Decode(c.Encode(in))
		if err != nil || out != in {
			t.Fatalf("round trip failed for %q: %q, %v", in, out, err)
		}
	})
}
