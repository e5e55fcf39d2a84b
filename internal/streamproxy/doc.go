// Package streamproxy is the local audio proxy between players and the
// musikcube audio server.
//
// Players request /audio/... from the daemon. The proxy forwards the request
// to http(s)://address:audio_port/audio/... with basic auth, adds a bitrate
// parameter when transcoding is enabled, and keeps complete responses in a
// size-bounded disk cache so replays do not touch the network.
//
// Settings are read when the proxy is created and on every Reload. Reload is
// what the settings reconciler calls after a commit.
package streamproxy
