// Command memsctl is an interactive bench console for MEMS mirror driver
// boards speaking the MTI serial protocol.
//
// It opens one session on a serial port, or on an in-process board
// simulator, takes line commands for parameter setup, drive control and
// positioning, and leaves through the safe shutdown sequence.
//
// Usage:
//
//	memsctl -port /dev/ttyUSB0
//	memsctl -simulate -log-level debug
//	memsctl -port /dev/ttyUSB1 -profile mirrors.yaml -mirror bench-a
//
// Flags:
//
//	-port string       serial device path (default "/dev/ttyUSB0")
//	-simulate          drive an in-process board simulator instead of hardware
//	-profile string    mirror profiles YAML file to load
//	-mirror string     profile to apply right after sign-on (requires -profile)
//	-settle duration   delay between command and response read (default 200ms)
//	-log-level string  log level: debug, info, warn, error (default "warn")
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/DMQIS/MEMS-Ctrl/internal/simdev"
	"github.com/DMQIS/MEMS-Ctrl/logger"
	"github.com/DMQIS/MEMS-Ctrl/mti"
	"github.com/DMQIS/MEMS-Ctrl/profile"
	"github.com/chzyer/readline"
)

func main() {
	var (
		port     = flag.String("port", "/dev/ttyUSB0", "serial device path")
		simulate = flag.Bool("simulate", false, "drive an in-process board simulator instead of hardware")
		profPath = flag.String("profile", "", "mirror profiles YAML file to load")
		mirror   = flag.String("mirror", "", "profile to apply right after sign-on (requires -profile)")
		settle   = flag.Duration("settle", mti.DefaultSettleInterval, "delay between command and response read")
		logLevel = flag.String("log-level", "warn", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger.SetLevel(logger.ParseLevel(*logLevel))
	log := logger.GetLogger()

	var profiles *profile.Config
	if *profPath != "" {
		var err error
		profiles, err = profile.Load(*profPath)
		if err != nil {
			log.Error("memsctl: cannot load profiles", "error", err)
			os.Exit(1)
		}
	}
	if *mirror != "" && profiles == nil {
		log.Error("memsctl: -mirror requires -profile")
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "memsctl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    consoleCompleter(profiles),
	})
	if err != nil {
		log.Error("memsctl: cannot start readline", "error", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Route session logs through readline so they do not mangle the
	// prompt. Must happen before the session derives its logger.
	log.SetOutput(rl.Stdout())

	opts := []mti.SessionOption{mti.WithSettleInterval(*settle)}
	portName := *port
	if *simulate {
		portName = "simulated"
		opts = append(opts, mti.WithTransport(simdev.New()))
	}

	cfg, err := mti.NewSessionConfig(portName, opts...)
	if err != nil {
		log.Error("memsctl: invalid session config", "error", err)
		os.Exit(1)
	}

	s, err := mti.NewSession(cfg)
	if err != nil {
		log.Error("memsctl: cannot create session", "error", err)
		os.Exit(1)
	}

	switch err := s.Open(); {
	case err == nil:
	case errors.Is(err, mti.ErrNoDevice):
		// The session stays open and usable, so print the bring-up
		// hints and drop into the console anyway.
		printNoDeviceHints(rl, portName)
	default:
		log.Error("memsctl: open failed", "error", err)
		os.Exit(1)
	}

	c := &console{s: s, profiles: profiles, rl: rl}

	if *mirror != "" {
		if err := c.applyProfile(*mirror); err != nil {
			fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
		}
	}

	c.run()
}

func printNoDeviceHints(rl *readline.Instance, port string) {
	fmt.Fprintf(rl.Stdout(), "no MEMS driver answered on %s\n", port)
	fmt.Fprintln(rl.Stdout(), "To check USB connections, run:")
	fmt.Fprintln(rl.Stdout(), "    ls -l /dev/serial/by-id")
	fmt.Fprintln(rl.Stdout(), "To check port permissions, run:")
	fmt.Fprintf(rl.Stdout(), "    ls -l %s\n", port)
}
