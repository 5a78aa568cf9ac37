// Command gatepass is the vehicle pass registry client for guard posts and the
// admin office.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/app/shell"
	"github.com/gatepass-registry/gatepass/internal/device"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
)

var Version = "0.1.0"

// cli holds what every command shares: the opened device and the bootstrap result.
type cli struct {
	getenv     func(string) string
	configPath string
	notices    io.Writer

	dev         *device.Device
	launch      session.State
	unsubscribe func()
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "gatepass",
		Short:         "Gatepass - vehicle pass registry client",
		Long:          `Gatepass signs guards and admins in to the vehicle pass registry, looks up vehicles by plate, pass number or record id, and manages records and admin staff.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/gatepass/config.yaml)")

	root.AddCommand(
		c.statusCmd(),
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.searchCmd(),
		c.vehiclesCmd(),
		c.staffCmd(),
	)
	return root
}

// run executes one command line. The device is closed whether or not the command succeeds.
func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer) (err error) {
	c := &cli{getenv: getenv, notices: stdout}
	defer func() {
		if cerr := c.close(); err == nil {
			err = cerr
		}
	}()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.ExecuteContext(ctx)
}

func (c *cli) open(ctx context.Context) error {
	if c.dev != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath, c.getenv)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	d, err := device.Open(ctx, device.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	c.dev = d
	c.unsubscribe = d.Session.Subscribe(c.notify)
	c.launch = d.Start(ctx)
	return nil
}

// notify tells the user when the registry ends their session mid-command.
func (c *cli) notify(ch session.Change) {
	if ch.Reason == session.ReasonExpired && c.notices != nil {
		fmt.Fprintln(c.notices, "Your session has expired. Please sign in again.")
	}
}

func (c *cli) close() error {
	if c.dev == nil {
		return nil
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	err := c.dev.Close()
	c.dev = nil
	return err
}

// requireSession fails unless a session is active.
func (c *cli) requireSession() error {
	if !c.dev.Session.Snapshot().Session.Authenticated() {
		return fmt.Errorf("not signed in (run 'gatepass login')")
	}
	return nil
}

// requireTab fails unless the current session can see tab.
func (c *cli) requireTab(tab shell.Tab) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	for _, t := range shell.ViewOf(c.dev.Session.Snapshot()).Tabs {
		if t == tab {
			return nil
		}
	}
	return fmt.Errorf("your role cannot use %s", tab)
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
