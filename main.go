package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echotree.klederson.com/internal/app"
	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/light"
	"echotree.klederson.com/internal/log"
	"echotree.klederson.com/internal/proximity"
	"echotree.klederson.com/internal/sound"
	"echotree.klederson.com/internal/supervisor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"gopkg.in/yaml.v3"
)

var (
	flagConfig    string
	flagDemo      bool
	flagMonitor   bool
	flagLogLevel  string
	flagLogFormat string
	flagLogFile   string
	flagLEDDriver string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "echotree",
		Short: "ECHOTREE - reactive light and sound installation controller",
		Long: `ECHOTREE reads ultrasonic rangers around the tree, plays one note per zone
into the synthesis engine and animates the LED strip from how close people stand.

Requires access to the GPIO and SPI devices for real hardware.
Use --demo to run with simulated sensors, strip and MIDI output.`,
		SilenceUsage: true,
		RunE:         run,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "echotree.yaml", "Installation file (missing file = built-in installation)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to this file (default stderr, echotree.log with --monitor)")

	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "Simulated sensors, strip and MIDI output; no engine is started")
	rootCmd.Flags().BoolVar(&flagMonitor, "monitor", false, "Show the live terminal monitor")
	rootCmd.Flags().StringVar(&flagLEDDriver, "led-driver", "", "Override the LED driver: spi, serial or emulated")

	rootCmd.AddCommand(portsCmd(), configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inst, err := loadInstallation()
	if err != nil {
		return err
	}

	logOut, closeLog, err := openLogOutput()
	if err != nil {
		return err
	}
	defer closeLog()
	log.Init(flagLogLevel, flagLogFormat, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout := light.Layout{Zones: len(inst.Zones), Trunk: inst.LEDs.Trunk, Branch: inst.LEDs.Branch}
	sink, err := openSink(inst, layout.Len())
	if err != nil {
		return err
	}
	strip := light.NewStrip(layout.Len(), sink)
	defer func() {
		if err := strip.Clear(); err != nil {
			log.Warn("light: blank strip", "err", err)
		}
		if err := strip.Close(); err != nil {
			log.Warn("light: close strip", "err", err)
		}
	}()

	state := proximity.NewState(len(inst.Zones))
	animator := light.NewAnimator(layout, strip, state, light.OptionsFrom(inst.Animation), newRand())
	sup := supervisor.New(inst, state, sessionDeps(inst, flagDemo), newRand())

	log.Info("echotree: starting",
		"zones", len(inst.Zones),
		"leds", layout.Len(),
		"driver", inst.LEDs.Driver,
		"muted", inst.DisabledSoundZones,
		"demo", flagDemo,
	)

	// The animator and the supervisor run independently; only an animator
	// failure takes the process down.
	anim := &animatorRun{done: make(chan struct{})}
	go func() {
		anim.err = animator.Run(ctx)
		close(anim.done)
	}()
	supDone := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(supDone)
	}()

	var fatal error
	if flagMonitor {
		fatal = runMonitor(ctx, inst, sup, state, animator, strip, anim)
	} else {
		select {
		case <-ctx.Done():
		case <-anim.done:
			fatal = animatorFailure(ctx, anim.err)
		}
	}

	stop()
	<-supDone
	// The strip is blanked only after the animator has stopped flushing.
	select {
	case <-anim.done:
	case <-time.After(2 * time.Second):
		log.Warn("light: animator did not stop in time")
	}
	log.Info("echotree: stopped", "sessions", sup.Sessions(), "frames", strip.Frames())
	return fatal
}

// animatorRun carries the animator's result; err is valid once done is closed.
type animatorRun struct {
	done chan struct{}
	err  error
}

func runMonitor(ctx context.Context, inst config.Installation, sup *supervisor.Supervisor, state *proximity.State, animator *light.Animator, strip *light.Strip, anim *animatorRun) error {
	mode := "LIVE"
	if flagDemo {
		mode = "DEMO"
	}
	model := app.New(inst, app.Sources{
		Status:    sup,
		Distances: state,
		Lights:    animator,
		Frames:    strip,
	}, mode)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithFPS(config.TargetFPS))

	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-anim.done:
			if err := animatorFailure(ctx, anim.err); err != nil {
				p.Send(app.FailedMsg{Err: err})
				return
			}
			p.Quit()
		}
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	if m, ok := final.(app.Model); ok {
		return m.Err()
	}
	return nil
}

// animatorFailure turns an animator error into the process failure, unless
// the animator only stopped for shutdown.
func animatorFailure(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	log.Error("light: animator failed", "err", err)
	return fmt.Errorf("light animator: %w", err)
}

func loadInstallation() (config.Installation, error) {
	inst, err := config.Load(flagConfig)
	if err != nil {
		return inst, err
	}
	switch {
	case flagLEDDriver != "":
		inst.LEDs.Driver = flagLEDDriver
	case flagDemo:
		inst.LEDs.Driver = "emulated"
	}
	return inst, inst.Validate()
}

func openLogOutput() (io.Writer, func(), error) {
	path := flagLogFile
	if path == "" && flagMonitor {
		path = "echotree.log"
	}
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI outputs and serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			outs, err := sound.ListOutputs()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "MIDI outputs (matching %q):\n", inst.Sound.DeviceMatch)
			if len(outs) == 0 {
				fmt.Fprintln(w, "  none")
			}
			for _, name := range outs {
				mark := " "
				if sound.ContainsCI(name, inst.Sound.DeviceMatch) {
					mark = "*"
				}
				fmt.Fprintf(w, "  %s %s\n", mark, name)
			}

			ports, err := serial.GetPortsList()
			if err != nil {
				return fmt.Errorf("list serial ports: %w", err)
			}
			fmt.Fprintln(w, "Serial ports:")
			if len(ports) == 0 {
				fmt.Fprintln(w, "  none")
			}
			for _, name := range ports {
				mark := " "
				if name == inst.LEDs.SerialPort {
					mark = "*"
				}
				fmt.Fprintf(w, "  %s %s\n", mark, name)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective installation as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(inst); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
