// Package ui renders musikremote's terminal output.
//
// Most components follow a "render once and print" pattern built on
// lipgloss: the settings view, result boxes with a step list for
// collaborator notifications, and the daemon status box. The one
// interactive component is the risk dialog, a small Bubble Tea program that
// asks the user to affirm a security-sensitive toggle:
//
//	affirmed, err := ui.ConfirmRisk(ui.PromptFor(settings.KeySSLEnabled), os.Stdin, os.Stdout)
//
// Dismissing the dialog counts as declining. Its "learn more" button opens
// the documentation in a browser on a best-effort basis; failures are
// logged and the link is shown instead.
//
// # Logging Integration
//
// Logging is silent unless MUSIKREMOTE_LOG_LEVEL or --log-level is set, so
// the styled output is not interleaved with log lines.
package ui
