package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/snapshot"
)

const helpText = `/help  Show this help
/history  List recent snapshots
/revert [hash]  Restore a snapshot (pick one when no hash is given)
/token  Token usage for this session
/clear-token  Reset the token counters
/clear-history  Forget the conversation so far
/clear  Clear screen
/exit  Exit (also /quit, /q)`

// handleCommand runs a slash command and reports whether the session should end.
func (c *Controller) handleCommand(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	command, args := fields[0], fields[1:]

	switch command {
	case "/exit", "/quit", "/q":
		return true
	case "/help":
		fmt.Fprintln(c.out, lipgloss.BoxStyle.Render(helpText))
	case "/history":
		c.showHistory(ctx)
	case "/revert":
		hash := ""
		if len(args) > 0 {
			hash = args[0]
		}
		c.revert(ctx, hash)
	case "/token":
		c.displayTokens()
	case "/clear-token":
		if c.cfg.Tokens != nil {
			c.cfg.Tokens.ClearToken()
		}
	case "/clear-history":
		c.history = nil
		if c.cfg.Analyzer != nil {
			c.cfg.Analyzer.ResetCache()
		}
		fmt.Fprintln(c.out, lipgloss.Green.Render("Conversation history cleared"))
	case "/clear":
		fmt.Fprint(c.out, "\033[2J\033[H")
	default:
		c.logger.Warn("unknown command", zap.String("command", command))
		fmt.Fprintln(c.out, lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, type /help for the list", command)))
	}
	return false
}

func (c *Controller) showHistory(ctx context.Context) {
	snapshots := c.cfg.Store.ListSnapshots(ctx, snapshot.DefaultListCount)
	if len(snapshots) == 0 {
		fmt.Fprintln(c.out, lipgloss.Yellow.Render("No snapshots yet"))
		return
	}
	for _, snap := range snapshots {
		fmt.Fprintln(c.out, formatSnapshot(snap))
	}
}

func formatSnapshot(snap snapshot.Snapshot) string {
	return fmt.Sprintf("%s  %s  %s", lipgloss.Cyan.Render(snap.Hash), snap.Message, lipgloss.Gray.Render(snap.Timestamp))
}

// revert restores hash, or lets the user pick a recent snapshot when hash is
// empty, then rebuilds the project.
func (c *Controller) revert(ctx context.Context, hash string) {
	if hash == "" {
		snapshots := c.cfg.Store.ListSnapshots(ctx, snapshot.DefaultListCount)
		if len(snapshots) == 0 {
			fmt.Fprintln(c.out, lipgloss.Yellow.Render("No snapshots to revert to"))
			return
		}

		options := make([]string, len(snapshots))
		for i, snap := range snapshots {
			options[i] = fmt.Sprintf("%s  %s  %s", snap.Hash, snap.Message, snap.Timestamp)
		}
		choice, err := c.cfg.Prompter.Select(ctx, "Revert to which snapshot?", options)
		if err != nil {
			if !errors.Is(err, apperrors.ErrCancelled) {
				c.printError(err)
			}
			return
		}
		hash = snapshots[choice].Hash
	}

	snap, err := c.cfg.Store.RevertToSnapshot(ctx, hash)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, lipgloss.Green.Render(fmt.Sprintf("⏪ %s (%s)", snap.Message, snap.Hash)))

	c.rebuild(ctx)
}
