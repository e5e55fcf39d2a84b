// Package connection owns the websocket connection to a musikcube server.
//
// The connection is opened lazily by Conn and authenticated with a single
// request before it is handed out. Disconnect closes it; the next Conn dials
// again with whatever settings are current at that point. This is how a
// settings commit takes effect: the reconciler calls Disconnect and the
// next use reconnects.
//
// Only the authenticate exchange is modeled. Everything after it belongs to
// the caller.
package connection
