package rtc

import (
	"testing"

	"github.com/daktari-health/telecall/internal/config"
)

func TestConfiguration_Defaults(t *testing.T) {
	got := Configuration(&config.Config{})
	if len(got.ICEServers) != 1 {
		t.Fatalf("expected one default STUN server, got %d", len(got.ICEServers))
	}
	if got.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Errorf("unexpected default STUN url: %v", got.ICEServers[0].URLs)
	}
}

func TestConfiguration_WithTURN(t *testing.T) {
	cfg := &config.Config{
		StunURLs:     []string{"stun:stun.example.org:3478"},
		TurnURL:      "turn:turn.example.org:3478",
		TurnUsername: "media",
		TurnPassword: "s3cret",
	}
	got := Configuration(cfg)
	if len(got.ICEServers) != 2 {
		t.Fatalf("expected STUN + TURN, got %d servers", len(got.ICEServers))
	}
	turn := got.ICEServers[1]
	if turn.URLs[0] != cfg.TurnURL || turn.Username != "media" || turn.Credential != "s3cret" {
		t.Errorf("unexpected TURN server: %+v", turn)
	}
}
