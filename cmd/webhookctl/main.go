// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Command webhookctl is the operator tool for registering, listing,
// and toggling webhook subscriptions outside the read API.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/wallettrust/core/internal/config"
	"github.com/wallettrust/core/internal/store"
)

var (
	keyIDFlag = cli.Uint64Flag{
		Name:  "key-id",
		Usage: "owning API key id",
	}
	urlFlag = cli.StringFlag{
		Name:  "url",
		Usage: "target URL the webhook POSTs to",
	}
	eventFlag = cli.StringFlag{
		Name:  "event",
		Usage: "score_drop, score_rise, or score_change",
	}
	walletFlag = cli.StringFlag{
		Name:  "wallet",
		Usage: "restrict delivery to this wallet address only",
	}
	thresholdFlag = cli.IntFlag{
		Name:  "threshold",
		Usage: "require old/new score on opposite sides of this value",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "webhookctl"
	app.Usage = "register and manage score-change webhook subscriptions"
	app.Commands = []cli.Command{
		registerCommand,
		listCommand,
		enableCommand,
		disableCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var registerCommand = cli.Command{
	Name:      "register",
	Usage:     "create a new webhook subscription",
	ArgsUsage: " ",
	Flags:     []cli.Flag{keyIDFlag, urlFlag, eventFlag, walletFlag, thresholdFlag},
	Action:    registerWebhook,
}

var listCommand = cli.Command{
	Name:      "list",
	Usage:     "list every webhook owned by an API key",
	ArgsUsage: " ",
	Flags:     []cli.Flag{keyIDFlag},
	Action:    listWebhooks,
}

var enableCommand = cli.Command{
	Name:      "enable",
	Usage:     "re-enable a disabled webhook, resetting its failure count",
	ArgsUsage: "<webhook-id>",
	Action:    withToggle(true),
}

var disableCommand = cli.Command{
	Name:      "disable",
	Usage:     "disable a webhook",
	ArgsUsage: "<webhook-id>",
	Action:    withToggle(false),
}

func openStore(c *cli.Context) (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	s, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	return s, nil
}

func registerWebhook(c *cli.Context) error {
	event := c.String(eventFlag.Name)
	switch event {
	case store.EventScoreDrop, store.EventScoreRise, store.EventScoreChange:
	default:
		return cli.NewExitError(fmt.Sprintf("unknown --event %q", event), 1)
	}
	if c.String(urlFlag.Name) == "" {
		return cli.NewExitError("--url is required", 1)
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	hook := &store.Webhook{
		APIKeyID:  c.Uint64(keyIDFlag.Name),
		TargetURL: c.String(urlFlag.Name),
		EventType: event,
	}
	if wallet := c.String(walletFlag.Name); wallet != "" {
		hook.WalletFilter = &wallet
	}
	if c.IsSet(thresholdFlag.Name) {
		t := c.Int(thresholdFlag.Name)
		hook.Threshold = &t
	}

	if err := s.CreateWebhook(hook); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Printf("created webhook %d\n", hook.ID)
	return nil
}

func listWebhooks(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	hooks, err := s.WebhooksForKey(c.Uint64(keyIDFlag.Name))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if len(hooks) == 0 {
		fmt.Println("no webhooks registered for this key")
		return nil
	}
	for _, h := range hooks {
		fmt.Println(formatWebhook(h))
	}
	return nil
}

func formatWebhook(h store.Webhook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%d event=%s url=%s disabled=%t failures=%d", h.ID, h.EventType, h.TargetURL, h.Disabled, h.ConsecutiveFailures)
	if h.WalletFilter != nil {
		fmt.Fprintf(&b, " wallet=%s", *h.WalletFilter)
	}
	if h.Threshold != nil {
		fmt.Fprintf(&b, " threshold=%d", *h.Threshold)
	}
	return b.String()
}

func withToggle(enable bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.NewExitError("exactly one webhook id argument is required", 1)
		}
		id, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("invalid webhook id %q", c.Args().Get(0)), 1)
		}

		s, err := openStore(c)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		if err := s.SetWebhookDisabled(id, !enable); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		verb := "disabled"
		if enable {
			verb = "enabled"
		}
		fmt.Printf("webhook %d %s\n", id, verb)
		return nil
	}
}
