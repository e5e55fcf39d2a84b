package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/musikremote/internal/config"
	"github.com/muurk/musikremote/internal/control"
	"github.com/muurk/musikremote/internal/discovery"
	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/server"
	"github.com/muurk/musikremote/internal/settings"
	"github.com/muurk/musikremote/internal/ui"
)

// Command flags
var (
	outputFormat string
	assumeYes    bool
	noInput      bool
	verify       bool
	scanTimeout  int
	quickScan    bool
	applyServer  string
	listenAddr   string
	reconnect    bool
	forceInit    bool
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

// session bundles an open store with a reconciler wired to the daemon
type session struct {
	store prefs.Store
	rec   *settings.Reconciler
	close func() error
}

// openSession opens the configured store. Unless --offline is set, the
// daemon control client stands in for all three collaborators.
func openSession() (*session, error) {
	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	opts := settings.Options{Store: store}
	if !offline {
		client := control.NewClient(cfg.DaemonURL())
		opts.Volume = client
		opts.Proxy = client
		opts.Connection = client
	}
	return &session{
		store: store,
		rec:   settings.NewReconciler(opts),
		close: closeStore,
	}, nil
}

func (s *session) Close() {
	if err := s.close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close preference store: %v\n", err)
	}
}

// showCmd prints the current preferences
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Long: `Display the stored settings after normalization.

Values that are missing or out of range are shown as the value the client
would actually use. The password is always masked.`,
	Example: `  # Styled output in a terminal
  musikremote show

  # One line per setting
  musikremote show --format compact

  # JSON for scripting
  musikremote show --format json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "", "Output format (styled, detailed, compact, json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ws := s.rec.Load()
	out := cmd.OutOrStdout()

	format := outputFormat
	if format == "" {
		format = "detailed"
		if ui.IsInteractive() {
			format = "styled"
		}
	}

	switch format {
	case "styled":
		ui.NewPrinter(out).PrintSettings(ws, s.rec.Choices())
	case "compact":
		fmt.Fprint(out, settings.FormatCompact(ws, s.rec.Choices()))
	case "json":
		data, err := json.MarshalIndent(jsonView(ws), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "detailed":
		fmt.Fprint(out, settings.FormatDetailed(ws, s.rec.Choices()))
	default:
		return fmt.Errorf("unknown format %q (use styled, detailed, compact or json)", format)
	}
	return nil
}

// jsonView converts ws to plain values keyed by preference name
func jsonView(ws settings.WorkingSet) map[string]any {
	view := make(map[string]any, len(ws))
	for _, f := range settings.Schema() {
		v := ws[f.Key]
		switch {
		case f.Secret:
			view[string(f.Key)] = v.Str() != ""
		case f.Kind == prefs.KindString:
			view[string(f.Key)] = v.Str()
		case f.Kind == prefs.KindInt:
			view[string(f.Key)] = v.Int()
		default:
			view[string(f.Key)] = v.Bool()
		}
	}
	return view
}

// setCmd edits one or more preferences
var setCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change settings",
	Long: `Change one or more settings and save them in a single batch.

Numbers that do not parse are stored as 0. Choice settings take a label
("128 kbps", "off") or an index; an unknown index falls back to the default.
Enabling ssl_enabled or cert_validation_disabled asks for confirmation first;
without a terminal the change is declined unless --yes is given.

After saving, a running daemon is told to reload its stream proxy, drop its
server connection and, when software volume is off, reset the volume.`,
	Example: `  # Point the client at a server
  musikremote set address=media-pc.local main_port=7905 audio_port=7906

  # Enable SSL without the confirmation dialog
  musikremote set ssl_enabled=on --yes

  # Transcode to 192 kbps and read the result back
  musikremote set transcoder_bitrate_index=192 --verify`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Confirm risky settings without prompting")
	setCmd.Flags().BoolVar(&noInput, "no-input", false, "Never prompt; decline risky settings unless --yes")
	setCmd.Flags().BoolVar(&verify, "verify", false, "Read the settings back after saving")
}

// parseAssignment splits key=value
func parseAssignment(arg string) (prefs.Key, string, error) {
	k, v, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return "", "", fmt.Errorf("invalid argument %q (expected key=value)", arg)
	}
	return prefs.Key(strings.TrimSpace(k)), v, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	sess := settings.Open(s.rec)
	for _, arg := range args {
		key, value, err := parseAssignment(arg)
		if err != nil {
			return err
		}
		prompt, err := sess.SetString(key, value)
		if err != nil {
			if errors.Is(err, settings.ErrUnknownKey) {
				return fmt.Errorf("%w (see 'musikremote keys')", err)
			}
			return err
		}
		if !prompt {
			continue
		}
		if err := confirmGated(cmd, sess, key); err != nil {
			return err
		}
	}

	changes := sess.Changes()
	printer := ui.NewPrinter(cmd.OutOrStdout())
	if len(changes) == 0 {
		printer.Println("No changes to save.")
		return sess.Cancel()
	}

	expected := sess.Current()
	result, err := sess.Save()
	if err != nil {
		return err
	}
	printer.PrintResult(ui.SaveResult(result, changes, s.rec.Choices()))
	if !result.Success {
		return fmt.Errorf("save failed: %w", result.Error)
	}

	if verify {
		vr := s.rec.Verify(expected)
		if !vr.Success {
			for _, m := range vr.Mismatches {
				printer.Println("  - " + m)
			}
			return vr.Error
		}
		printer.Println("Settings verified.")
	}
	return nil
}

// confirmGated resolves a pending gated toggle: --yes affirms, no terminal
// declines, otherwise the risk dialog decides
func confirmGated(cmd *cobra.Command, sess *settings.Session, key prefs.Key) error {
	if assumeYes {
		return sess.Affirm(key)
	}
	if noInput || !ui.IsInteractive() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Declined %s: confirmation needed, rerun with --yes\n", key)
		return sess.Decline(key)
	}

	affirmed, err := ui.ConfirmRisk(ui.PromptFor(key), cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if affirmed {
		return sess.Affirm(key)
	}
	return sess.Decline(key)
}

// resetCmd restores defaults
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every setting to its default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		before := s.rec.Load()
		result := s.rec.Reset()
		printer := ui.NewPrinter(cmd.OutOrStdout())
		printer.PrintResult(ui.SaveResult(result, before.Diff(settings.Defaults()), s.rec.Choices()))
		if !result.Success {
			return fmt.Errorf("reset failed: %w", result.Error)
		}
		return nil
	},
}

// keysCmd lists the schema
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys, types and defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		choices := settings.DefaultChoices()
		for _, f := range settings.Schema() {
			fmt.Fprintf(out, "%-28s %-13s default %s\n", f.Key, f.Input, settings.FormatValue(f, f.Default, choices))
			fmt.Fprintf(out, "  %s\n", f.Description)
			if list, ok := choices[f.Key]; ok {
				fmt.Fprintf(out, "  choices: %s\n", strings.Join(list.Labels(), ", "))
			}
			if settings.IsGated(f.Key) {
				fmt.Fprintln(out, "  asks for confirmation when enabled")
			}
		}
		return nil
	},
}

// scanCmd discovers musikcube servers
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find musikcube servers on the local network",
	Long: `Browse mDNS for musikcube servers and list what answers.

With --apply, the chosen server's address and ports are saved like
'musikremote set' would, and the daemon is notified.`,
	Example: `  # List servers
  musikremote scan

  # Short scan
  musikremote scan --quick

  # Use the first server found
  musikremote scan --apply 1

  # Wait for a server by name
  musikremote scan --apply media-pc --timeout 10`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")
	scanCmd.Flags().BoolVar(&quickScan, "quick", false, "Short scan for servers that answer quickly")
	scanCmd.MarkFlagsMutuallyExclusive("quick", "timeout")
	scanCmd.Flags().StringVar(&applyServer, "apply", "", "Save the server with this list number or name")
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.DiscoveryTimeout()
	list := scanner.ScanForServers
	switch {
	case quickScan:
		scanner = discovery.NewQuickScanner()
		list = discovery.QuickScan
	case scanTimeout > 0:
		scanner.Timeout = time.Duration(scanTimeout) * time.Second
	}
	printer := ui.NewPrinter(cmd.OutOrStdout())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var chosen *discovery.Server
	if index, err := strconv.Atoi(applyServer); applyServer == "" || err == nil {
		printer.Println(fmt.Sprintf("Scanning for musikcube servers (timeout: %s)...", scanner.Timeout))
		servers, err := list(ctx)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		printer.PrintServers(servers)
		if applyServer == "" {
			return nil
		}
		if index < 1 || index > len(servers) {
			return fmt.Errorf("no server numbered %d", index)
		}
		chosen = servers[index-1]
	} else {
		printer.Println(fmt.Sprintf("Waiting for %q (timeout: %s)...", applyServer, scanner.Timeout))
		chosen, err = scanner.WaitForServer(ctx, applyServer)
		if err != nil {
			return err
		}
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	before := s.rec.Load()
	next := s.rec.ValidateAndNormalize(before, chosen.Edits())
	result := s.rec.Commit(next)
	printer.PrintResult(ui.SaveResult(result, before.Diff(next), s.rec.Choices()))
	if !result.Success {
		return fmt.Errorf("save failed: %w", result.Error)
	}
	return nil
}

// serveCmd runs the daemon
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon that applies saved settings",
	Long: `Run the musikremote daemon in the foreground.

The daemon hosts the streaming proxy, the server connection and the volume
control, and exposes a control API used by the other commands. With the file
store it also watches the preferences file and reloads when it changes.`,
	Example: `  # Default address from the config file
  musikremote serve

  # Listen elsewhere with debug logging
  musikremote serve --listen 127.0.0.1:9000 --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Control API address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	listen := cfg.Daemon.Listen
	if listenAddr != "" {
		listen = listenAddr
	}
	srv, err := server.New(&server.Config{
		Listen:   listen,
		CacheDir: cfg.CacheDir(),
		Watch:    cfg.Daemon.Watch,
	}, store)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "musikremote daemon listening on %s (Ctrl+C to stop)\n", listen)
	return srv.Start()
}

// statusCmd asks the daemon for its state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := control.NewClient(cfg.DaemonURL())

		var (
			st  *server.Status
			err error
		)
		if reconnect {
			client.SetTimeout(control.ConnectTimeout)
			st, err = client.Connect()
		} else {
			st, err = client.Status()
		}
		if err != nil {
			if control.IsUnavailable(err) {
				return fmt.Errorf("daemon not running at %s (start it with 'musikremote serve')", cfg.DaemonURL())
			}
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintStatus(st)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&reconnect, "connect", false, "Connect to the server before reporting")
}

// configCmd manages the config file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the musikremote config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config and preference file locations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config: %s\n", cfg.Path())
		if cfg.Store.Backend != config.BackendMemory {
			fmt.Fprintf(out, "prefs:  %s\n", cfg.PrefsPath())
		}
		fmt.Fprintf(out, "cache:  %s\n", cfg.CacheDir())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.Path()); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.Path())
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfg.Path())
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}
