// ABOUTME: CLI commands for the charm-backed draft cache
// ABOUTME: Link, status, manual sync, and wipe of locally cached drafts

package charm

import (
	"flag"
	"fmt"
	"io"
)

// LinkCommand verifies the device can sync with the charm server.
// Charm authenticates with the device's SSH key, so there is no login step.
func LinkCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("cache link", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	_, _ = fmt.Fprintf(out, "Linking draft cache to %s...\n", cfg.Host)

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(out, "✓ Device linked (ID unavailable)")
	} else {
		_, _ = fmt.Fprintf(out, "✓ Linked to account: %s\n", id)
	}
	_, _ = fmt.Fprintf(out, "✓ Auto-sync: %v\n", cfg.AutoSync)
	return nil
}

// StatusCommand prints the cache server, identity, and cached draft count.
func StatusCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("cache status", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	_, _ = fmt.Fprintln(out, "Draft Cache")
	_, _ = fmt.Fprintln(out, "───────────")
	_, _ = fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(out, "Status:    Local only")
	} else {
		_, _ = fmt.Fprintln(out, "Status:    Connected")
		_, _ = fmt.Fprintf(out, "ID:        %s\n", id)
	}

	drafts, err := c.ListDrafts()
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Drafts:    %d\n", len(drafts))

	active, err := c.ActiveDraft()
	if err != nil {
		return fmt.Errorf("failed to read active draft: %w", err)
	}
	if active != "" {
		_, _ = fmt.Fprintf(out, "Active:    %s\n", active)
	}
	return nil
}

// NowCommand performs an immediate sync.
func NowCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("cache sync", flag.ContinueOnError)
	fs.SetOutput(out)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *verbose {
		_, _ = fmt.Fprintln(out, "Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ Synced")
	return nil
}

// WipeCommand deletes every cached draft. Requires --confirm.
func WipeCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("cache wipe", flag.ContinueOnError)
	fs.SetOutput(out)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		_, _ = fmt.Fprintln(out, "WARNING: This will delete ALL locally cached drafts!")
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "To confirm, run:")
		_, _ = fmt.Fprintln(out, "  hazardos cache wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ All cached drafts wiped")
	return nil
}
