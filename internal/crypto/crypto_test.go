package crypto

import (
	"strings"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s := NewSealer("strong-passphrase-123")

	sealed, err := s.Seal("EVENTBRITE_TOKEN_abc123")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("sealed value missing prefix: %q", sealed)
	}
	if strings.Contains(sealed, "abc123") {
		t.Error("sealed value leaks plaintext")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "EVENTBRITE_TOKEN_abc123" {
		t.Errorf("round trip = %q", got)
	}
}

func TestSealProducesDistinctCiphertexts(t *testing.T) {
	s := NewSealer("pass")

	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Error("nonce reuse: two seals of the same value are identical")
	}
}

func TestOpenWrongPassphraseFails(t *testing.T) {
	sealed, err := NewSealer("right").Seal("secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewSealer("wrong").Open(sealed); err == nil {
		t.Error("wrong passphrase must fail, not return garbage")
	}
}

func TestOpenPassesThroughUnsealedValues(t *testing.T) {
	for _, s := range []*Sealer{NewSealer("pass"), nil} {
		got, err := s.Open("plain-value")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if got != "plain-value" {
			t.Errorf("passthrough = %q", got)
		}
	}
}

func TestNilSealerRefusesSealedValues(t *testing.T) {
	var s *Sealer
	if _, err := s.Open("enc:AAAA"); err == nil {
		t.Error("sealed value without passphrase must fail")
	}
	if _, err := s.Seal("x"); err == nil {
		t.Error("sealing without passphrase must fail")
	}
}

func TestNewSealerEmptyPassphrase(t *testing.T) {
	if NewSealer("") != nil {
		t.Error("empty passphrase must give nil sealer")
	}
}

func TestOpenMap(t *testing.T) {
	s := NewSealer("pass")
	sealed, err := s.Seal("token")
	if err != nil {
		t.Fatal(err)
	}

	opened, err := s.OpenMap(map[string]string{
		"Authorization": sealed,
		"Accept":        "application/json",
	})
	if err != nil {
		t.Fatalf("OpenMap: %v", err)
	}
	if opened["Authorization"] != "token" {
		t.Errorf("sealed header = %q", opened["Authorization"])
	}
	if opened["Accept"] != "application/json" {
		t.Errorf("plain header = %q", opened["Accept"])
	}
}
