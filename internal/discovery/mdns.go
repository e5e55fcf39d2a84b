package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/settings"
)

const (
	// ServiceType is the mDNS service type musikcube advertises
	ServiceType = "_musikcube._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second

	txtAudioPort = "audio_port"
	txtVersion   = "version"
)

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForServers collects every server that answers before the timeout
func (s *Scanner) ScanForServers(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		servers []*Server
		seen    = make(map[string]bool)
		done    = make(chan struct{})
	)

	go func() {
		defer close(done)
		for entry := range entries {
			server := parseServiceEntry(entry)
			if server == nil {
				continue
			}
			mu.Lock()
			if !seen[server.Address()] {
				seen[server.Address()] = true
				servers = append(servers, server)
				logging.Debug("Discovered musikcube server", zap.String("server", server.String()))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// zeroconf closes entries once the browse context ends.
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Server(nil), servers...), nil
}

// WaitForServer returns the first server whose instance name or hostname
// starts with name (case insensitive), or any server when name is empty.
func (s *Scanner) WaitForServer(ctx context.Context, name string) (*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Server, 1)

	go func() {
		for entry := range entries {
			server := parseServiceEntry(entry)
			if server != nil && server.matches(name) {
				select {
				case found <- server:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case server := <-found:
		return server, nil
	case <-ctx.Done():
		select {
		case server := <-found:
			return server, nil
		default:
		}
		if name == "" {
			return nil, fmt.Errorf("no musikcube server found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("musikcube server %q not found within %s", name, s.Timeout)
	}
}

func (s *Server) matches(name string) bool {
	if name == "" {
		return true
	}
	name = strings.ToLower(name)
	return strings.HasPrefix(strings.ToLower(s.Instance), name) ||
		strings.HasPrefix(strings.ToLower(s.Hostname), name)
}

// parseServiceEntry converts a zeroconf entry to a Server.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Server {
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = settings.DefaultMainPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	audioPort := settings.DefaultAudioPort
	if raw, ok := metadata[txtAudioPort]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < 65536 {
			audioPort = n
		}
	}

	return &Server{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		MainPort:     port,
		AudioPort:    audioPort,
		Version:      metadata[txtVersion],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// QuickScanTimeout bounds QuickScan
const QuickScanTimeout = 3 * time.Second

// NewQuickScanner creates a scanner with QuickScanTimeout
func NewQuickScanner() *Scanner {
	return &Scanner{Timeout: QuickScanTimeout}
}

// QuickScan performs a fast scan with QuickScanTimeout
func QuickScan(ctx context.Context) ([]*Server, error) {
	return NewQuickScanner().ScanForServers(ctx)
}
