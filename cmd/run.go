package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/codeincontext/claudeck/internal/config"
	"github.com/codeincontext/claudeck/internal/inject"
	"github.com/codeincontext/claudeck/internal/otel"
	"github.com/codeincontext/claudeck/internal/pty"
	"github.com/codeincontext/claudeck/internal/server"
	"github.com/codeincontext/claudeck/internal/state"
)

var (
	flagPollInterval string
	flagSubmitDelay  string
	flagBufferSize   int
	flagRulesFile    string
	flagDebugFile    string
	flagHeadless     bool
)

var runCmd = &cobra.Command{
	Use:   "run [-- command [args...]]",
	Short: "Start a Claude Code session under the wrapper",
	Long: `Start the wrapped session and serve the control API.

By default your terminal is attached: keystrokes go to the session and
its output is rendered as usual. Use --headless for environments without
a terminal (CI, daemons); the session then only speaks through the API.

The command after -- overrides the configured one, e.g.:

  claudeck run -- claude --dangerously-skip-permissions`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVar(&flagPollInterval, "poll-interval", "", "PTY poll interval (default: 100ms)")
	runCmd.Flags().StringVar(&flagSubmitDelay, "submit-delay", "", "pause between injected text and its return (default: 200ms)")
	runCmd.Flags().IntVar(&flagBufferSize, "buffer-size", 0, "retained output window in bytes (default: 65536)")
	runCmd.Flags().StringVar(&flagRulesFile, "rules-file", envOrDefault("CLAUDECK_RULES_FILE", ""), "YAML rule table overriding the built-in recognizers")
	runCmd.Flags().StringVar(&flagDebugFile, "debug-file", envOrDefault("CLAUDECK_DEBUG_FILE", ""), "append a raw I/O transcript to this file")
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "do not attach the local terminal")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg, args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	otel.Version = Version
	tel, err := otel.Init(ctx, otel.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		tel.Shutdown(shutdownCtx)
	}()

	sessionID := uuid.NewString()

	rules := state.DefaultRules()
	if cfg.RulesFile != "" {
		rules, err = state.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}
	}

	tracker := state.NewTracker(cfg.BufferSize, rules)
	tracker.OnTransition(func(from, to state.Mode) {
		tel.Metrics.RecordTransition(context.Background(), string(from), string(to))
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "claudeck: mode %s -> %s\n", from, to)
		}
	})

	attached := !flagHeadless && term.IsTerminal(int(os.Stdin.Fd()))

	opts := pty.DefaultOptions()
	opts.Command = cfg.Command
	opts.Args = cfg.Args
	opts.PollInterval = cfg.PollDuration
	if attached {
		if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			opts.Rows, opts.Cols = uint16(rows), uint16(cols)
		}
	}

	sup := pty.NewSupervisor(opts)
	if err := sup.Start(); err != nil {
		return err
	}
	defer sup.Close()

	var transcript *server.Transcript
	if cfg.DebugFile != "" {
		transcript, err = server.OpenTranscript(cfg.DebugFile)
		if err != nil {
			return err
		}
		defer transcript.Close()
	}

	var input io.Writer = sup
	if transcript != nil {
		input = &inputRecorder{dst: sup, transcript: transcript}
	}
	inj := inject.New(input, cfg.SubmitDelayDuration)
	svc := server.NewService(sup, tracker, inj, tel)

	if flagVerbose {
		fmt.Fprintf(os.Stderr, "claudeck: session %s pid %d listening on %s\n", sessionID, sup.PID(), cfg.Listen)
	}

	// Control service.
	httpSrv := &http.Server{Addr: cfg.Listen, Handler: server.NewHandler(svc)}
	httpErr := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	// Hot reload of the rule table.
	if cfg.RulesFile != "" {
		go func() {
			_ = state.WatchRules(ctx, cfg.RulesFile, tracker, func(err error) {
				fmt.Fprintf(os.Stderr, "claudeck: %v\n", err)
			})
		}()
	}

	// Attached terminal: raw mode, forward keystrokes and window size.
	var restore func()
	if attached {
		restore, err = attachTerminal(ctx, sup, transcript)
		if err != nil {
			return err
		}
		defer restore()
	}

	// Read loop.
	runner := server.NewRunner(sup, tracker, tel)
	runner.Transcript = transcript
	if attached {
		runner.Tee = os.Stdout
	}
	runnerDone := make(chan error, 1)
	go func() { runnerDone <- runner.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "claudeck: received %v, shutting down\n", sig)
		}
		cancel()
		<-runnerDone
	case err := <-httpErr:
		cancel()
		<-runnerDone
		return fmt.Errorf("control service: %w", err)
	case err := <-runnerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	if code, ok := sup.ExitStatus(); ok && code != 0 {
		if restore != nil {
			restore()
		}
		os.Exit(code)
	}
	return nil
}

// applyRunFlags overlays command line values onto the loaded config.
// Flags beat config file and environment; a malformed flag value is an
// error, not a silent fallback.
func applyRunFlags(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.Command = args[0]
		cfg.Args = args[1:]
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagPollInterval != "" {
		d, err := time.ParseDuration(flagPollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll interval %q: %w", flagPollInterval, err)
		}
		cfg.PollDuration = d
	}
	if flagSubmitDelay != "" {
		d, err := time.ParseDuration(flagSubmitDelay)
		if err != nil {
			return fmt.Errorf("invalid submit delay %q: %w", flagSubmitDelay, err)
		}
		cfg.SubmitDelayDuration = d
	}
	if flagBufferSize > 0 {
		cfg.BufferSize = flagBufferSize
	}
	if flagRulesFile != "" {
		cfg.RulesFile = flagRulesFile
	}
	if flagDebugFile != "" {
		cfg.DebugFile = flagDebugFile
	}
	return nil
}

// attachTerminal puts stdin into raw mode, mirrors keystrokes into the
// session and propagates terminal resizes. Returns the restore function.
func attachTerminal(ctx context.Context, sup *pty.Supervisor, transcript *server.Transcript) (func(), error) {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	restore := func() { _ = term.Restore(fd, old) }

	// Keystrokes.
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if transcript != nil {
					transcript.In(buf[:n])
				}
				if _, err := sup.Write(buf[:n]); err != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// Window size.
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		defer signal.Stop(winch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-winch:
				if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					_ = sup.Resize(uint16(rows), uint16(cols))
				}
			}
		}
	}()

	return restore, nil
}

// inputRecorder tees injected bytes into the transcript.
type inputRecorder struct {
	dst        io.Writer
	transcript *server.Transcript
}

func (r *inputRecorder) Write(p []byte) (int, error) {
	r.transcript.In(p)
	return r.dst.Write(p)
}
