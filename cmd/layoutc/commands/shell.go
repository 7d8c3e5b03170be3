package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/system"
)

// Console executes shell commands against an Env. Each device it adds gets
// a state buffer the console owns.
type Console struct {
	env     *Env
	out     io.Writer
	buffers map[uuid.UUID][]byte
}

// NewConsole creates a console writing to out.
func NewConsole(env *Env, out io.Writer) *Console {
	c := &Console{env: env, out: out, buffers: make(map[uuid.UUID][]byte)}
	env.System.OnEvent(c.handleEvent)
	return c
}

// handleEvent keeps state buffers in step with the device set.
func (c *Console) handleEvent(ev system.Event) {
	switch ev.Type {
	case system.DeviceRemoved:
		delete(c.buffers, ev.Device.ID())
	case system.DeviceRebuilt:
		if _, owned := c.buffers[ev.Device.ID()]; owned && !ev.Device.IsAttached() {
			c.attach(ev.Device)
		}
		fmt.Fprintf(c.out, "Rebuilt %s\n", ev.Device.Name())
	}
}

func (c *Console) attach(dev *control.Device) {
	buf := make([]byte, dev.SizeInBytes())
	if err := dev.Attach(buf); err == nil {
		c.buffers[dev.ID()] = buf
	}
}

// Exec runs one command line and reports whether the console should exit.
func (c *Console) Exec(line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "load", "l":
		err = c.cmdLoad(args)
	case "layouts":
		c.cmdLayouts()
	case "add", "a":
		err = c.cmdAdd(args)
	case "remove", "rm":
		err = c.cmdRemove(args)
	case "devices", "d":
		c.cmdDevices()
	case "query", "q":
		err = c.cmdQuery(args)
	case "read", "r":
		err = c.cmdRead(args)
	case "set", "s":
		err = c.cmdSet(args)
	case "dump":
		err = c.cmdDump(args)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `
Layout Shell Commands:
  Layouts:
    load <path>...      - Register layouts from files or directories
    layouts             - List registered layouts
    dump <layout>       - Print the flattened layout as YAML

  Devices:
    add <layout>        - Build a device and attach a zeroed state buffer
    remove <device>     - Remove a device
    devices             - List devices

  Controls:
    query <path>        - List controls matching a path
    read <path>         - Read the values of matching controls
    set <path> <value>  - Write a raw value (number, true/false, or x,y)

  exit                  - Leave the shell
`)
}

func (c *Console) cmdLoad(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: load <path>...")
	}
	names, err := c.env.LoadNames(args...)
	if len(names) > 0 {
		fmt.Fprintf(c.out, "Registered %s\n", strings.Join(names, ", "))
	}
	return err
}

func (c *Console) cmdLayouts() {
	for _, name := range c.env.Registry.Names() {
		fmt.Fprintln(c.out, name)
	}
}

func (c *Console) cmdAdd(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: add <layout>")
	}
	dev, err := c.env.System.AddDevice(args[0])
	if err != nil {
		return err
	}
	c.attach(dev)
	fmt.Fprintf(c.out, "Added %s, %d bytes of state\n", dev, dev.SizeInBytes())
	return nil
}

func (c *Console) cmdRemove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove <device>")
	}
	dev, ok := c.env.System.Device(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", system.ErrUnknownDevice, args[0])
	}
	return c.env.System.RemoveDevice(dev.ID())
}

func (c *Console) cmdDevices() {
	devs := c.env.System.Devices()
	for _, d := range devs {
		fmt.Fprintf(c.out, "%-20s %-20s %4d bytes  %s\n", d.Name(), d.Layout(), d.SizeInBytes(), d.ID())
	}
	fmt.Fprintf(c.out, "%d device(s)\n", len(devs))
}

func (c *Console) cmdQuery(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: query <path>")
	}
	controls, err := c.env.System.GetControls(args[0])
	if err != nil {
		return err
	}
	printControls(c.out, controls)
	return nil
}

func (c *Console) cmdRead(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read <path>")
	}
	controls, err := c.env.System.GetControls(args[0])
	if err != nil {
		return err
	}
	for _, ctl := range controls {
		v, err := ctl.ReadValue()
		if err != nil {
			fmt.Fprintf(c.out, "%-36s (%v)\n", ctl.Path(), err)
			continue
		}
		fmt.Fprintf(c.out, "%-36s %v\n", ctl.Path(), v)
	}
	return nil
}

func (c *Console) cmdSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <path> <value>")
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}
	controls, err := c.env.System.GetControls(args[0])
	if err != nil {
		return err
	}
	if len(controls) == 0 {
		return fmt.Errorf("no control matches %s", args[0])
	}
	for _, ctl := range controls {
		buf, ok := c.buffers[ctl.Device().ID()]
		if !ok {
			return fmt.Errorf("device %s has no console state", ctl.Device().Name())
		}
		if err := ctl.WriteValueInto(buf, v); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.out, "Set %d control(s)\n", len(controls))
	return nil
}

func (c *Console) cmdDump(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dump <layout>")
	}
	return RunDump(c.env.Registry, args[0], c.out)
}

// parseValue reads true/false, "x,y" vectors and numbers.
func parseValue(s string) (any, error) {
	if b, err := strconv.ParseBool(s); err == nil && !isNumeric(s) {
		return b, nil
	}
	if xs, ys, ok := strings.Cut(s, ","); ok {
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector: %s", s)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector: %s", s)
		}
		return control.Vector2{X: x, Y: y}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %s", s)
	}
	return f, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// RunShell starts the interactive console on the terminal.
func RunShell(env *Env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "layoutc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("load"), readline.PcItem("layouts"), readline.PcItem("dump"),
			readline.PcItem("add"), readline.PcItem("remove"), readline.PcItem("devices"),
			readline.PcItem("query"), readline.PcItem("read"), readline.PcItem("set"),
			readline.PcItem("help"), readline.PcItem("exit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	c := NewConsole(env, rl.Stdout())
	c.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if c.Exec(strings.TrimSpace(line)) {
			return nil
		}
	}
}
