// Package server implements the musikremote daemon.
//
// The daemon owns the collaborators that must react when preferences are
// committed: the streaming proxy, the websocket connection to the musikcube
// server, and the volume mixer. Processes that commit preferences (the CLI)
// reach them through a small HTTP control API; the daemon also watches the
// preferences file and applies edits made behind its back.
//
// # Routes
//
//	GET  /status              JSON snapshot of proxy, connection and mixer
//	POST /control/reload      re-read preferences, reconfigure the proxy
//	POST /control/disconnect  drop the server connection
//	POST /control/connect     dial and authenticate now
//	POST /control/volume      {"level": 0.0-1.0}
//	GET  /audio/*             proxied to the musikcube audio server
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Listen:   "127.0.0.1:7910",
//	    CacheDir: cacheDir,
//	    Watch:    true,
//	}, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until SIGINT/SIGTERM
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the daemon:
//  1. Stops accepting requests and drains in-flight ones
//  2. Closes the server connection with a normal close frame
//  3. Stops the preferences watcher
package server
