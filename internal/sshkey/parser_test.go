package sshkey

import (
	"strings"
	"testing"
)

func TestParseSimpleKey(t *testing.T) {
	algo, data, comment, err := Parse("ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIFoo user@laptop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if algo != "ssh-ed25519" {
		t.Errorf("expected algorithm ssh-ed25519, got %q", algo)
	}
	if data != "AAAAC3NzaC1lZDI1NTE5AAAAIFoo" {
		t.Errorf("unexpected key data %q", data)
	}
	if comment != "user@laptop" {
		t.Errorf("expected comment user@laptop, got %q", comment)
	}
}

func TestParseWithOptionsPrefix(t *testing.T) {
	line := `from="10.0.0.1",no-pty ssh-rsa AAAAB3Nza backup key`
	algo, data, comment, err := Parse(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if algo != "ssh-rsa" {
		t.Errorf("expected algorithm ssh-rsa, got %q", algo)
	}
	if data != "AAAAB3Nza" {
		t.Errorf("unexpected key data %q", data)
	}
	if comment != "backup key" {
		t.Errorf("expected multi-word comment, got %q", comment)
	}
}

func TestParseNoComment(t *testing.T) {
	_, _, comment, err := Parse("ecdsa-sha2-nistp256 AAAAE2VjZHNh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment != "" {
		t.Errorf("expected empty comment, got %q", comment)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", "   ", "not a key at all", "ssh-ed25519"}
	for _, c := range cases {
		if _, _, _, err := Parse(c); err == nil {
			t.Errorf("expected error for %q, got nil", c)
		}
	}
}

func TestFingerprintRejectsGarbage(t *testing.T) {
	if _, err := Fingerprint("ssh-ed25519", "notbase64!!!"); err == nil {
		t.Fatal("expected error for malformed key data")
	}
}

func TestFingerprintKnownKey(t *testing.T) {
	algo := "ssh-ed25519"
	data := "AAAAC3NzaC1lZDI1NTE5AAAAIGJ8+q2XGkGVNJMbEbqUrrSDxkPkPYBd2ZJWXEvNV1at"
	fp, err := Fingerprint(algo, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(fp, "SHA256:") {
		t.Errorf("expected SHA256: prefix, got %q", fp)
	}
}
