// Package interactive provides the interactive console for rgbd.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/usb"
)

// Lighting is the part of the supervisor the console drives.
type Lighting interface {
	ApplyEffect(ctx context.Context, name string, brightness color.Brightness, c *color.Color) (bool, error)
	AvailableEffects() []string
	SupportsColor(name string) bool
	Color(name string) (color.Color, bool)
	ActiveEffect() (string, color.Brightness, bool)
	Devices() []*model.Device
	DisableDevice(name string) bool
	CompatibleDevices() []usb.Identifier
	OnUSBChanged(ctx context.Context) error
	ProtocolVersion() (uint32, error)
	Running() bool
	Reloads() int64
	Reload(ctx context.Context) error
	Profiles(ctx context.Context) ([]string, error)
	SaveProfile(ctx context.Context, name string) error
	LoadProfile(ctx context.Context, name string) error
	DeleteProfile(ctx context.Context, name string) error
}

// Console is a readline command loop over a Lighting.
type Console struct {
	rl    *readline.Instance
	out   io.Writer
	light Lighting
}

// New creates a console on the terminal.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rgbd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

// Attach sets the lighting the commands operate on.
func (c *Console) Attach(l Lighting) {
	c.light = l
}

// Stdout returns a writer that properly coordinates with the readline input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(ctx, line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether it asked to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "effects", "e":
		c.cmdEffects()
	case "apply", "a":
		c.cmdApply(ctx, args)
	case "devices", "d":
		c.cmdDevices()
	case "disable":
		c.cmdDisable(args)
	case "usb":
		c.cmdUSB(ctx)
	case "profiles", "p":
		c.cmdProfiles(ctx, args)
	case "reload":
		c.cmdReload(ctx)
	case "status", "s":
		c.cmdStatus()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
rgbd Commands:
  Effects:
    effects                          - List effects and their colors
    apply <effect> [level] [#rrggbb] - Apply an effect (level: off, low, medium, high, max)

  Devices:
    devices            - List controllers
    disable <name>     - Stop writing to a controller
    usb                - Show compatible USB devices and re-check hot-plug

  Server:
    profiles [save|load|delete <name>] - Manage server profiles
    reload             - Restart the server and re-apply the effect
    status             - Show connection and effect state

  General:
    help               - Show this help
    quit               - Exit rgbd

  Names with spaces may be written with underscores, e.g. Rainbow_wave.`)
}

// arg restores spaces written as underscores.
func arg(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func (c *Console) cmdEffects() {
	active, _, _ := c.light.ActiveEffect()
	for _, name := range c.light.AvailableEffects() {
		marker := " "
		if name == active {
			marker = "*"
		}
		if col, ok := c.light.Color(name); ok {
			fmt.Fprintf(c.out, " %s %-16s color %s\n", marker, name, col)
		} else {
			fmt.Fprintf(c.out, " %s %s\n", marker, name)
		}
	}
}

func (c *Console) cmdApply(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: apply <effect> [level] [#rrggbb]")
		fmt.Fprintln(c.out, "  Example: apply Static medium #FF0000")
		return
	}
	name := arg(args[0])
	brightness := color.Max
	if _, current, ok := c.light.ActiveEffect(); ok {
		brightness = current
	}
	var col *color.Color

	for _, a := range args[1:] {
		if strings.HasPrefix(a, "#") {
			parsed, err := color.ParseHex(a)
			if err != nil {
				fmt.Fprintf(c.out, "Invalid color: %v\n", err)
				return
			}
			col = &parsed
			continue
		}
		b, err := color.ParseBrightness(a)
		if err != nil {
			fmt.Fprintf(c.out, "Invalid level: %v\n", err)
			return
		}
		brightness = b
	}

	if col != nil && !c.light.SupportsColor(name) {
		fmt.Fprintf(c.out, "Note: %s does not take a color, ignoring %s\n", name, col)
	}
	supportsColor, err := c.light.ApplyEffect(ctx, name, brightness, col)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Applied %s at %s (color: %t)\n", name, brightness, supportsColor)
}

func (c *Console) cmdDevices() {
	devices := c.light.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No controllers")
		return
	}
	for _, d := range devices {
		state := "enabled"
		if !d.Enabled() {
			state = "disabled"
		}
		fmt.Fprintf(c.out, "  [%d] %-30s %-10s %3d LEDs, %d zones (%s)\n",
			d.Index, d.Name, d.Type, d.LEDCount(), len(d.Zones), state)
	}
}

func (c *Console) cmdDisable(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: disable <name>")
		return
	}
	name := arg(strings.Join(args, " "))
	if !c.light.DisableDevice(name) {
		fmt.Fprintf(c.out, "No controller named %q\n", name)
		return
	}
	fmt.Fprintf(c.out, "Disabled %s\n", name)
}

func (c *Console) cmdUSB(ctx context.Context) {
	ids := c.light.CompatibleDevices()
	fmt.Fprintf(c.out, "%d compatible USB devices known\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(c.out, "  %s  %s\n", id, id.DisplayName())
	}
	if err := c.light.OnUSBChanged(ctx); err != nil {
		fmt.Fprintf(c.out, "Hot-plug check failed: %v\n", err)
	}
}

func (c *Console) cmdProfiles(ctx context.Context, args []string) {
	if len(args) == 0 {
		profiles, err := c.light.Profiles(ctx)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		if len(profiles) == 0 {
			fmt.Fprintln(c.out, "No profiles")
		}
		for _, p := range profiles {
			fmt.Fprintf(c.out, "  %s\n", p)
		}
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: profiles [save|load|delete <name>]")
		return
	}

	name := arg(strings.Join(args[1:], " "))
	var err error
	switch strings.ToLower(args[0]) {
	case "save":
		err = c.light.SaveProfile(ctx, name)
	case "load":
		err = c.light.LoadProfile(ctx, name)
	case "delete":
		err = c.light.DeleteProfile(ctx, name)
	default:
		err = errors.New("unknown profile action " + args[0])
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Profile %s: %s\n", args[0], name)
}

func (c *Console) cmdReload(ctx context.Context) {
	if err := c.light.Reload(ctx); err != nil {
		fmt.Fprintf(c.out, "Reload failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Reloaded")
}

func (c *Console) cmdStatus() {
	if !c.light.Running() {
		fmt.Fprintln(c.out, "Server:   not running")
	} else {
		v, _ := c.light.ProtocolVersion()
		fmt.Fprintf(c.out, "Server:   running, protocol version %d\n", v)
	}
	fmt.Fprintf(c.out, "Devices:  %d\n", len(c.light.Devices()))
	fmt.Fprintf(c.out, "Reloads:  %d\n", c.light.Reloads())
	if name, b, ok := c.light.ActiveEffect(); ok {
		fmt.Fprintf(c.out, "Effect:   %s at %s\n", name, b)
	} else {
		fmt.Fprintln(c.out, "Effect:   none")
	}
}
