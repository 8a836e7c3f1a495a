package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/changeset"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/embed_data"
	"github.com/meysamhadeli/dappai/pipeline"
	"github.com/meysamhadeli/dappai/providers"
	"github.com/meysamhadeli/dappai/providers/models"
	"github.com/meysamhadeli/dappai/repair"
	"github.com/meysamhadeli/dappai/utils"
)

var chatTemplate = template.Must(template.New("chat").Parse(string(embed_data.ChatPrompt)))

// Recovery menu entries, in display order.
var recoveryOptions = []string{
	"Auto-fix with AI",
	"Refine with another instruction",
	"Revert this change",
	"Continue with the broken build",
}

const (
	recoverAutoFix = iota
	recoverRefine
	recoverRevert
	recoverContinue
)

func (c *Controller) systemPrompt(ctx context.Context) string {
	stop := c.cfg.Spin("Loading context...")
	projectContext, err := c.cfg.Analyzer.BuildContext(ctx)
	stop()
	if err != nil {
		c.logger.Warn("failed to collect project context", zap.Error(err))
	}

	var buf bytes.Buffer
	if err := chatTemplate.Execute(&buf, struct{ Context string }{projectContext}); err != nil {
		c.logger.Error("rendering chat prompt", zap.Error(err))
	}
	return buf.String()
}

// ask appends message to the history and sends the whole conversation. On
// failure the message is removed again so the history is left as it was.
func (c *Controller) ask(ctx context.Context, systemPrompt, message string) (string, error) {
	c.history = append(c.history, models.Message{Role: models.RoleUser, Content: message})

	stop := c.cfg.Spin("AI is thinking...")
	reply, err := providers.Send(ctx, c.provider, systemPrompt, c.history)
	stop()

	if err != nil {
		c.history = c.history[:len(c.history)-1]
		return "", err
	}
	c.history = append(c.history, models.Message{Role: models.RoleAssistant, Content: reply})
	return reply, nil
}

// parseReply splits a reply into edits and explanation. A reply that holds no
// change set is treated as prose.
func parseReply(reply string) ([]changeset.ChangeEntry, string) {
	entries, explanation, err := changeset.ParseWithExplanation(reply)
	if err != nil {
		return nil, reply
	}
	return entries, explanation
}

func (c *Controller) turn(ctx context.Context, request string) {
	log := c.logger.With(zap.String("request", truncate(singleLine(request), beforeLabelLength)))
	defer c.displayTokens()

	reply, err := c.ask(ctx, c.systemPrompt(ctx), request)
	if err != nil {
		log.Warn("model request failed", zap.Error(err))
		c.printError(err)
		return
	}

	entries, explanation := parseReply(reply)
	if len(entries) == 0 {
		c.explain(explanation)
		return
	}

	changeset.Preview(c.out, c.cfg.Layout.Root, entries, c.cfg.Theme)

	if _, err := c.cfg.Store.CreateSnapshot(ctx, beforeLabel(request)); err != nil {
		log.Error("before snapshot failed", zap.Error(err))
		c.printError(err)
		return
	}
	preTurn, _ := c.cfg.Store.LatestHash(ctx)

	// Partial writes are still captured by the after snapshot.
	if err := c.apply(entries); err == nil {
		log.Info("changes applied", zap.Strings("paths", changeset.Paths(entries)))
		c.explain(explanation)

		if changeset.TouchesContracts(entries) {
			if result := c.rebuild(ctx); !result.BuildSuccess {
				c.offerRecovery(ctx, preTurn, result.BuildErrors)
			}
		}
	}

	if _, err := c.cfg.Store.CreateSnapshot(ctx, afterLabel(request)); err != nil {
		log.Error("after snapshot failed", zap.Error(err))
		c.printError(err)
	}
}

func (c *Controller) apply(entries []changeset.ChangeEntry) error {
	if err := changeset.Apply(c.cfg.Layout.Root, entries); err != nil {
		c.printError(err)
		return err
	}
	fmt.Fprintln(c.out, lipgloss.Green.Render(fmt.Sprintf("✔️ Applied changes to %d file(s)", len(entries))))
	return nil
}

func (c *Controller) explain(explanation string) {
	if explanation == "" {
		return
	}
	fmt.Fprintln(c.out)
	if err := utils.RenderExplanation(c.out, explanation, 0); err != nil {
		c.logger.Debug("rendering explanation", zap.Error(err))
	}
}

func (c *Controller) rebuild(ctx context.Context) pipeline.RebuildResult {
	result := c.cfg.Pipeline.Rebuild(ctx, pipeline.Options{Deploy: c.cfg.Deploy})
	if !result.BuildSuccess {
		fmt.Fprintln(c.out, lipgloss.ErrorBoxStyle.Render(truncate(result.BuildErrors, refineErrorLength)))
	}
	return result
}

// offerRecovery offers the ways out of a broken build. preTurn is the snapshot taken
// just before this turn's edits were applied.
func (c *Controller) offerRecovery(ctx context.Context, preTurn, buildErrors string) {
	choice, err := c.cfg.Prompter.Select(ctx, "The build is failing. What next?", recoveryOptions)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCancelled) {
			c.printError(err)
		}
		return
	}
	c.logger.Info("recovery chosen", zap.String("option", recoveryOptions[choice]))

	switch choice {
	case recoverAutoFix:
		c.autoFix(ctx, buildErrors)
	case recoverRefine:
		c.refine(ctx, buildErrors)
	case recoverRevert:
		if preTurn == "" {
			fmt.Fprintln(c.out, lipgloss.Yellow.Render("Nothing to revert to"))
			return
		}
		snap, err := c.cfg.Store.RevertToSnapshot(ctx, preTurn)
		if err != nil {
			c.printError(err)
			return
		}
		fmt.Fprintln(c.out, lipgloss.Green.Render(fmt.Sprintf("⏪ Change reverted (%s)", snap.Hash)))
	case recoverContinue:
		fmt.Fprintln(c.out, lipgloss.Yellow.Render("Continuing with a failing build"))
	}
}

func (c *Controller) autoFix(ctx context.Context, buildErrors string) {
	result, err := c.repairer.Run(ctx, repair.Options{
		MaxRetries:   c.cfg.MaxRetries,
		Auto:         c.cfg.AutoRepair,
		InitialError: buildErrors,
	})
	if err != nil {
		c.printError(err)
		return
	}
	if result.Success {
		// Deploy and codegen were skipped by the failed build.
		c.rebuild(ctx)
	}
}

// refine sends one more instruction together with the build error and applies
// whatever the model returns. It never loops.
func (c *Controller) refine(ctx context.Context, buildErrors string) {
	instruction, err := c.cfg.Prompter.Ask(ctx, "How should the AI fix it? ")
	if err != nil || instruction == "" {
		return
	}

	message := fmt.Sprintf("%s\n\nThe build failed with:\n```\n%s\n```", instruction, truncate(buildErrors, refineErrorLength))
	reply, err := c.ask(ctx, c.systemPrompt(ctx), message)
	if err != nil {
		c.printError(err)
		return
	}

	entries, explanation := parseReply(reply)
	if len(entries) == 0 {
		c.explain(explanation)
		return
	}

	changeset.Preview(c.out, c.cfg.Layout.Root, entries, c.cfg.Theme)
	if err := c.apply(entries); err != nil {
		return
	}
	c.explain(explanation)
	c.rebuild(ctx)
}
