// Package settings reconciles the user-editable musikcube connection and
// streaming preferences with a prefs.Store.
//
// # Overview
//
// A Reconciler loads a WorkingSet from the store (absent keys take their
// defaults), applies raw user input through ValidateAndNormalize, and commits
// the result in one atomic batch. After every successful commit it notifies
// three collaborators, in this order:
//
//  1. VolumeControl.SetVolume(1.0), only when software volume is disabled
//  2. StreamingProxy.Reload()
//  3. ConnectionService.Disconnect()
//
// A failing collaborator does not stop the others and does not turn the
// commit into a failure. When the store rejects the batch no collaborator is
// notified and the caller keeps its WorkingSet so it can retry.
//
// # Normalization
//
// Malformed input is normalized instead of rejected:
//
//   - numeric text that is empty or not base-10 becomes 0
//   - a choice index outside its list becomes the field's default index
//   - input of the wrong shape for a field (text for a toggle) is ignored
//
// # Risk Confirmation
//
// Enabling TLS and disabling certificate validation are gated toggles. Each
// has a Gate that moves Off -> Pending on a user edit and only reaches
// Confirmed when the user affirms the warning. The WorkingSet only ever sees
// the confirmed value.
//
// # Sessions
//
// Session ties one WorkingSet and the gates together for a single edit:
//
//	rec := settings.NewReconciler(settings.Options{
//	    Store:      store,
//	    Volume:     mixer,
//	    Proxy:      proxy,
//	    Connection: conn,
//	})
//	sess := settings.Open(rec)
//	sess.SetNumber(settings.KeyMainPort, "7905")
//	if prompt, _ := sess.SetToggle(settings.KeySSLEnabled, true); prompt {
//	    // ask the user, then
//	    sess.Affirm(settings.KeySSLEnabled)
//	}
//	result, err := sess.Save()
//
// Reconciler and Session are not safe for concurrent use.
package settings
