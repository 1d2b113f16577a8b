// Command relay-driver drives a relay or transistor-switched load on a GPIO pin.
//
// Usage:
//
//	relay-driver [flags] setup    drive the pin to its off level and exit
//	relay-driver [flags] toggle   pulse the load for the toggle duration and exit
//	relay-driver [flags] serve    hold the relay, take commands from stdin
//
// In serve mode each stdin line is one of: on, off, toggle, state,
// duration <d>.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/relay-driver/internal/gpio"
	"github.com/sweeney/relay-driver/internal/mqtt"
	"github.com/sweeney/relay-driver/internal/relay"
	"github.com/sweeney/relay-driver/internal/status"
	"github.com/sweeney/relay-driver/internal/web"
)

const (
	cmdSetup  = "setup"
	cmdToggle = "toggle"
	cmdServe  = "serve"
)

type config struct {
	Backend   string
	Chip      string
	Pin       int
	Kind      string
	OffLevel  string
	Toggle    time.Duration
	Broker    string
	HTTPAddr  string
	Heartbeat time.Duration
}

func main() {
	var cfg config
	flag.StringVar(&cfg.Backend, "backend", gpio.BackendChip, fmt.Sprintf("GPIO backend %v", gpio.Backends))
	flag.StringVar(&cfg.Chip, "chip", "gpiochip0", "GPIO chip for the gpiocdev backend")
	flag.IntVar(&cfg.Pin, "pin", 17, "BCM pin / line offset driving the relay")
	flag.StringVar(&cfg.Kind, "kind", string(relay.KindRelay), `"relay" (active-low) or "transistor" (active-high)`)
	flag.StringVar(&cfg.OffLevel, "off-level", "", "Override the kind's off level (low or high); on is the opposite")
	flag.DurationVar(&cfg.Toggle, "toggle", relay.DefaultToggleDuration, "Pulse width for toggle")
	flag.StringVar(&cfg.Broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&cfg.HTTPAddr, "http", "", "HTTP status address (empty to disable)")
	flag.DurationVar(&cfg.Heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval in serve mode (0 to disable)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logJSON := flag.Bool("log-json", false, "Log as JSON")

	flag.Parse()

	if err := configureLogging(*logLevel, *logJSON); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	command := cmdServe
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(cfg, command); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func configureLogging(level string, asJSON bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	if asJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func run(cfg config, command string) error {
	switch command {
	case cmdSetup, cmdToggle, cmdServe:
	default:
		return fmt.Errorf("unknown command %q (valid: %s, %s, %s)", command, cmdSetup, cmdToggle, cmdServe)
	}

	polarity, err := relay.PolarityFor(cfg.Kind)
	if err != nil {
		return err
	}
	if cfg.OffLevel != "" {
		off, err := gpio.ParseLevel(cfg.OffLevel)
		if err != nil {
			return fmt.Errorf("off level: %w", err)
		}
		polarity = polarity.WithOff(off)
	}

	out, err := gpio.Open(cfg.Backend, cfg.Chip, log.StandardLogger())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.WithError(err).Warn("gpio close")
		}
	}()

	logger := log.WithFields(log.Fields{"pin": cfg.Pin, "kind": polarity.Kind})

	switch command {
	case cmdSetup:
		r := relay.NewWithPolarity(cfg.Pin, polarity, out)
		if err := r.Setup(); err != nil {
			return err
		}
		logger.WithField("state", r.State()).Info("setup complete")
		return nil

	case cmdToggle:
		r := relay.NewWithPolarity(cfg.Pin, polarity, out)
		r.SetToggleDuration(cfg.Toggle)
		if err := r.Setup(); err != nil {
			return err
		}
		if err := r.Toggle(); err != nil {
			return err
		}
		logger.WithField("duration", cfg.Toggle).Info("toggled")
		return nil
	}

	return serve(cfg, out, polarity)
}

func serve(cfg config, out gpio.Output, polarity relay.Polarity) error {
	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, fmt.Sprintf("relay-driver-%d", cfg.Pin))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	var tracker *status.Tracker
	fwd := startForwarder(publisher, 64)
	defer fwd.close()

	r := relay.NewWithPolarity(cfg.Pin, polarity, out, relay.WithObserver(func(e relay.Event) {
		tracker.Record(e)
		fwd.observe(e)
	}))
	r.SetToggleDuration(cfg.Toggle)

	tracker = status.NewTracker(time.Now(), status.Relay{
		Pin:      cfg.Pin,
		Kind:     polarity.Kind,
		OnLevel:  polarity.On,
		OffLevel: polarity.Off,
	}, status.Config{
		Backend:     cfg.Backend,
		Chip:        cfg.Chip,
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	}, status.WithToggleSource(r))

	if err := r.Setup(); err != nil {
		return fmt.Errorf("setup relay: %w", err)
	}

	publishStatus(publisher, mqttStatus, tracker, "STARTUP", "", true)

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	var tick <-chan time.Time
	if cfg.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.Heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.WithFields(log.Fields{
		"pin":       cfg.Pin,
		"kind":      polarity.Kind,
		"backend":   cfg.Backend,
		"toggle":    cfg.Toggle,
		"broker":    cfg.Broker,
		"heartbeat": cfg.Heartbeat,
	}).Info("started")

	return runLoop(r, fwd, publisher, mqttStatus, tracker, readLines(os.Stdin), tick, sigCh)
}

func runLoop(r *relay.Relay, fwd *forwarder, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, lines <-chan string, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			name := signalName(s)
			log.WithField("signal", name).Info("shutting down")
			if err := r.Switch(false); err != nil {
				log.WithError(err).Error("de-energize on shutdown")
			}
			// The final state goes out before SHUTDOWN.
			fwd.flush()
			publishStatus(publisher, mqttStatus, tracker, "SHUTDOWN", name, true)
			return nil

		case line, ok := <-lines:
			if !ok {
				log.Debug("console closed")
				lines = nil
				continue
			}
			if err := handleCommand(r, line); err != nil {
				log.WithError(err).WithField("command", line).Warn("command failed")
			}

		case <-tick:
			publishStatus(publisher, mqttStatus, tracker, "HEARTBEAT", "", false)
		}
	}
}

func handleCommand(r *relay.Relay, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "on":
		return r.Switch(true)
	case "off":
		return r.Switch(false)
	case "toggle":
		return r.Toggle()
	case "state":
		log.WithFields(log.Fields{
			"pin":    r.Pin(),
			"state":  r.State(),
			"toggle": r.ToggleDuration(),
		}).Info("state")
		return nil
	case "duration":
		if len(fields) != 2 {
			return fmt.Errorf("usage: duration <d>")
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		r.SetToggleDuration(d)
		log.WithField("toggle", d).Info("toggle duration changed")
		return nil
	}
	return fmt.Errorf("unknown command %q", fields[0])
}

func publishStatus(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string, retained bool) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	if publisher == nil {
		return
	}

	snap := tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(e); err != nil {
		log.WithError(err).WithField("event", event).Warn("failed to publish system event")
		return
	}
	log.WithField("event", event).Debug("published system event")
}

// readLines streams lines from r until EOF, then closes the channel.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			log.WithError(err).Warn("console read error")
		}
	}()
	return ch
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
