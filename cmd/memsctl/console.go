package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DMQIS/MEMS-Ctrl/mti"
	"github.com/DMQIS/MEMS-Ctrl/profile"
	"github.com/chzyer/readline"
)

// console is the readline command loop around one session.
type console struct {
	s        *mti.Session
	profiles *profile.Config
	rl       *readline.Instance
}

func (c *console) run() {
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			// ^C and ^D leave through the safe shutdown sequence.
			if !errors.Is(err, readline.ErrInterrupt) && !errors.Is(err, io.EOF) {
				fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			}
			c.shutdown()

			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "status":
			c.cmdStatus()

		case "vbias":
			c.cmdParam("vbias", args, c.s.SetVBias)

		case "vdiff":
			c.cmdParam("vdiff", args, c.s.SetVDiffMax)

		case "bw":
			c.cmdParam("bw", args, c.s.SetFilterBW)

		case "params":
			c.cmdParams(args)

		case "profile":
			c.cmdProfile(args)

		case "goto":
			c.cmdGoto(args)

		case "center":
			c.report(c.s.SetMirrorPosition(0, 0))

		case "on":
			c.report(c.s.EnableHV())

		case "off":
			c.report(c.s.DisableHV())

		case "echo":
			c.report(c.s.EnableEcho())

		case "raw":
			c.cmdRaw(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))

		case "exit", "quit":
			if c.cmdExit() {
				return
			}

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *console) report(err error) {
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	fmt.Fprintln(c.rl.Stdout(), "ok")
}

func (c *console) cmdStatus() {
	fmt.Fprintln(c.rl.Stdout(), c.s.Status())

	pos, live := c.s.MirrorPosition()
	state := "staged"
	if live {
		state = "live"
	}
	fmt.Fprintf(c.rl.Stdout(), "position (%g, %g) %s\n", pos.X, pos.Y, state)
}

func (c *console) cmdParam(name string, args []string, set func(int) error) {
	if len(args) != 1 {
		fmt.Fprintf(c.rl.Stdout(), "usage: %s N\n", name)
		return
	}

	v, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "usage: %s N\n", name)
		return
	}

	c.report(set(v))
}

func (c *console) cmdParams(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.rl.Stdout(), "usage: params VB VD BW")
		return
	}

	vals := make([]int, 3)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(c.rl.Stdout(), "usage: params VB VD BW")
			return
		}
		vals[i] = v
	}

	c.report(c.s.SetMirrorParams(vals[0], vals[1], vals[2]))
}

func (c *console) cmdProfile(args []string) {
	if len(args) == 0 {
		if c.profiles == nil {
			fmt.Fprintln(c.rl.Stdout(), "no profiles loaded, start with -profile FILE")
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "profiles: %s\n", strings.Join(c.profiles.Names(), ", "))

		return
	}

	c.report(c.applyProfile(args[0]))
}

func (c *console) applyProfile(name string) error {
	if c.profiles == nil {
		return errors.New("no profiles loaded, start with -profile FILE")
	}

	p, err := c.profiles.Lookup(name)
	if err != nil {
		return err
	}

	return p.Apply(c.s)
}

func (c *console) cmdGoto(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "usage: goto X Y")
		return
	}

	x, errX := strconv.ParseFloat(args[0], 64)
	y, errY := strconv.ParseFloat(args[1], 64)
	if errX != nil || errY != nil {
		fmt.Fprintln(c.rl.Stdout(), "usage: goto X Y")
		return
	}

	c.report(c.s.SetMirrorPosition(x, y))
}

func (c *console) cmdRaw(cmd string) {
	if cmd == "" {
		fmt.Fprintln(c.rl.Stdout(), "usage: raw CMD")
		return
	}

	resp, err := c.s.Raw(cmd)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if resp == "" {
		fmt.Fprintln(c.rl.Stdout(), "(no response)")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "%q\n", resp)
}

// cmdExit reports whether the loop should end. A refused logout keeps
// the console alive so the port can be debugged by hand.
func (c *console) cmdExit() bool {
	err := c.s.Exit()
	switch {
	case err == nil:
		fmt.Fprintln(c.rl.Stdout(), "disconnected")
		return true

	case errors.Is(err, mti.ErrExitRefused):
		fmt.Fprintln(c.rl.Stdout(), "device refused logout; port left open, try 'raw' to recover or 'quit' to retry")
		return false

	default:
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		fmt.Fprintln(c.rl.Stdout(), "forcing the port closed")
		_ = c.s.ForceClose()

		return true
	}
}

// shutdown is the interrupt path: one safe exit attempt, then the port
// is forced closed no matter what.
func (c *console) shutdown() {
	fmt.Fprintln(c.rl.Stdout(), "shutting down")
	if err := c.s.Exit(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		if c.s.IsOpen() {
			_ = c.s.ForceClose()
		}
	}
}

// consoleCompleter completes the console verbs and, after profile, the
// loaded profile names.
func consoleCompleter(profiles *profile.Config) *readline.PrefixCompleter {
	names := readline.PcItemDynamic(func(string) []string {
		if profiles == nil {
			return nil
		}

		return profiles.Names()
	})

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("status"),
		readline.PcItem("vbias"),
		readline.PcItem("vdiff"),
		readline.PcItem("bw"),
		readline.PcItem("params"),
		readline.PcItem("profile", names),
		readline.PcItem("goto"),
		readline.PcItem("center"),
		readline.PcItem("on"),
		readline.PcItem("off"),
		readline.PcItem("echo"),
		readline.PcItem("raw"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

func (c *console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
MEMS driver commands:
  Parameters:
    vbias N            - set bias voltage [0, 100] V
    vdiff N            - set max differential voltage [0, 200] V
    bw N               - set hardware filter bandwidth [50, 15000] Hz
    params VB VD BW    - set all three in one go
    profile [NAME]     - apply a loaded profile (no name lists them)

  Drive and motion:
    on                 - enable the high-voltage drive (params must be set)
    off                - disable the high-voltage drive
    goto X Y           - point the mirror, axes in [-1, 1]
    center             - return the mirror to (0, 0)

  Diagnostics:
    status             - show driver status and position
    echo               - switch the board's response echo on
    raw CMD            - send a raw protocol line, print the reply

  General:
    help               - show this help
    exit, quit         - leave through the safe shutdown sequence`)
}
