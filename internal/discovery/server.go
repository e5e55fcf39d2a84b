package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/muurk/musikremote/internal/settings"
)

// Server is a musikcube server found on the network
type Server struct {
	// Instance is the advertised service instance name
	Instance string

	// Hostname is the mDNS hostname (e.g., "media-pc.local.")
	Hostname string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// MainPort is the advertised metadata (websocket) port
	MainPort int

	// AudioPort is read from the audio_port TXT record, or the default
	AudioPort int

	// Version is the musikcube version from the TXT record, if any
	Version string

	// Metadata contains every TXT record
	Metadata map[string]string

	// DiscoveredAt is when the server was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the server
func (s *Server) String() string {
	v := s.Version
	if v == "" {
		v = "unknown version"
	}
	return fmt.Sprintf("%s (%s) at %s ports %d/%d", s.Instance, v, s.IP, s.MainPort, s.AudioPort)
}

// Address returns host:port of the metadata server
func (s *Server) Address() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.MainPort))
}

// Edits returns raw settings edits pointing the client at this server
func (s *Server) Edits() settings.RawEdits {
	return settings.NewEditsBuilder().
		SetServer(s.IP, strconv.Itoa(s.MainPort), strconv.Itoa(s.AudioPort)).
		Build()
}
