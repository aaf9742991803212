// Package rtc builds the ICE configuration handed to clients. Media
// never touches this server; peers only need to know which STUN/TURN
// servers to negotiate through.
package rtc

import (
	"github.com/pion/webrtc/v4"

	"github.com/daktari-health/telecall/internal/config"
)

func Configuration(cfg *config.Config) webrtc.Configuration {
	urls := cfg.StunURLs
	if len(urls) == 0 {
		urls = []string{"stun:stun.l.google.com:19302"}
	}
	servers := []webrtc.ICEServer{
		{URLs: urls},
	}
	if cfg.TurnURL != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{cfg.TurnURL},
			Username:   cfg.TurnUsername,
			Credential: cfg.TurnPassword,
		})
	}
	return webrtc.Configuration{ICEServers: servers}
}
