package urls

// Documentation URLs shown by the CLI and the risk dialogs.

// SSLServerSetup explains how to put a musikcube server behind TLS. It is
// the "learn more" target of the SSL confirmation dialog.
const SSLServerSetup = "https://github.com/clangen/musikcube/wiki/ssl-server-setup"

// RemoteAPI documents the websocket and audio endpoints of the server.
const RemoteAPI = "https://github.com/clangen/musikcube/wiki/remote-api-documentation"

// ServerSetup covers enabling the server plugin and choosing ports.
const ServerSetup = "https://github.com/clangen/musikcube/wiki/user-guide#server-setup"
