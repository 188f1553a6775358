package tui

import (
	"strings"
	"testing"
)

func TestRenderHelpersKeepMessage(t *testing.T) {
	if got := Success("keys added"); !strings.Contains(got, "keys added") {
		t.Errorf("Success dropped the message: %q", got)
	}
	if got := Notice("agent-only key skipped"); !strings.Contains(got, "agent-only key skipped") {
		t.Errorf("Notice dropped the message: %q", got)
	}
}
