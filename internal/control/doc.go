// Package control is the client side of the daemon control API.
//
// A Client satisfies the reconciler's three collaborator interfaces, so a
// CLI process that commits preferences notifies the long-running daemon:
//
//	client := control.NewClient(cfg.DaemonURL())
//	rec := settings.NewReconciler(settings.Options{
//	    Store:      store,
//	    Volume:     client,
//	    Proxy:      client,
//	    Connection: client,
//	})
//
// When no daemon is running every call fails fast with an error for which
// IsUnavailable reports true.
package control
