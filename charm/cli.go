// ABOUTME: `onsite sync` subcommands for the charm storage backend
// ABOUTME: Status, manual sync, auto-sync toggle and local wipe

package charm

import (
	"flag"
	"fmt"
	"io"
)

// SyncCommand dispatches `onsite sync <sub>`.
func SyncCommand(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(out, "Usage: onsite sync <status|now|auto|wipe>")
		return nil
	}

	switch args[0] {
	case "status":
		return syncStatus(out)
	case "now":
		return syncNow(args[1:], out)
	case "auto":
		return syncAuto(args[1:], out)
	case "wipe":
		return syncWipe(args[1:], out)
	}
	return fmt.Errorf("unknown sync command: %s", args[0])
}

func syncStatus(out io.Writer) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintln(out, "Charm Sync Status")
	fmt.Fprintln(out, "─────────────────")
	fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	c, err := GetClient()
	if err != nil {
		fmt.Fprintf(out, "\nStatus: Not connected (%v)\n", err)
		return nil
	}

	if id, err := c.ID(); err != nil {
		fmt.Fprintln(out, "\nStatus: Connected (ID unavailable)")
	} else {
		fmt.Fprintln(out, "\nStatus: Connected")
		fmt.Fprintf(out, "ID:        %s\n", id)
	}

	if keys, err := c.Keys(); err == nil {
		fmt.Fprintf(out, "Keys:      %d\n", len(keys))
	}
	if last := c.LastSync(); !last.IsZero() {
		fmt.Fprintf(out, "Synced:    %s\n", last.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func syncNow(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync now", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Synced")
	return nil
}

func syncAuto(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync auto", flag.ContinueOnError)
	fs.SetOutput(out)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *enable == *disable {
		fmt.Fprintln(out, "Usage: onsite sync auto --enable|--disable")
		return nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.AutoSync = *enable
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if *enable {
		fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}

func syncWipe(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync wipe", flag.ContinueOnError)
	fs.SetOutput(out)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		fmt.Fprintln(out, "WARNING: This deletes every saved visit on this device.")
		fmt.Fprintln(out, "To confirm, run:")
		fmt.Fprintln(out, "  onsite sync wipe --confirm")
		return nil
	}

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Fprintln(out, "✓ All local visits wiped")
	return nil
}
