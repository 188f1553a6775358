// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.
package i18n

import (
	"strings"
	"testing"
)

func TestInitSetsLanguage(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	SetLang("de")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("cli.nothing_selected"); got != "Nothing selected, nothing to do." {
		t.Fatalf("unexpected translation: %q", got)
	}

	// fmt-style formatting via trailing args
	got := T("cli.push_success", 3, "deploy@server-01")
	if got != "Added 3 key(s) to deploy@server-01." {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	// switch language to German
	SetLang("de")
	if got := T("cli.nothing_selected"); got != "Nichts ausgewählt, nichts zu tun." {
		t.Fatalf("unexpected German translation: %q", got)
	}
}

func TestT_UnknownIDFallsBackToID(t *testing.T) {
	Init("en")
	if got := T("no.such.key"); got != "no.such.key" {
		t.Fatalf("expected the message ID back, got %q", got)
	}
}

func TestLocalesCoverSameKeys(t *testing.T) {
	// Every key present in en.yaml should have a German counterpart.
	en, err := localeFS.ReadFile("locales/en.yaml")
	if err != nil {
		t.Fatal(err)
	}
	de, err := localeFS.ReadFile("locales/de.yaml")
	if err != nil {
		t.Fatal(err)
	}
	deStr := string(de)
	for _, line := range strings.Split(string(en), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.Contains(deStr, key+":") {
			t.Errorf("key %q missing from de.yaml", key)
		}
	}
}
