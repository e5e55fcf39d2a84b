// Package discovery finds musikcube servers on the local network over mDNS.
//
// musikcube advertises its metadata (websocket) server as a "_musikcube._tcp"
// service. The advertised port is the main port; the audio port and server
// version come from TXT records when the server publishes them.
//
// # Usage Example
//
//	servers, err := discovery.NewScanner().ScanForServers(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, s := range servers {
//	    fmt.Println(s)
//	}
//
// A discovered server can be turned into settings edits with Server.Edits.
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Servers must be on the same local network segment
//   - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// Multiple scans can run at the same time.
package discovery
