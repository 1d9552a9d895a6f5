package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/snackbar/internal/dbus"
	"github.com/jmylchreest/snackbar/internal/model"
)

type sendOptions struct {
	variant   string
	urgency   string
	category  string
	appName   string
	action    string
	tag       string
	timeout   int
	persist   bool
	replaceID uint32

	wait        bool
	waitTimeout time.Duration
}

var sendOpts sendOptions

var sendCmd = &cobra.Command{
	Use:   "send <message> [body...]",
	Short: "Post a snack to the running snackbard daemon",
	Long: `Post a snack over the org.freedesktop.Notifications D-Bus interface.

The notification id is printed on stdout. With --wait the command blocks
until the snack closes and prints how it closed and any invoked action.

Examples:
  # Plain info snack
  snackbar send "Build finished"

  # Error snack that stays until dismissed
  snackbar send --variant error --persist "Deploy failed" "see CI logs"

  # Snack with an action, waiting for the user
  snackbar send --action undo=Undo --wait "Message archived"

  # Replace the previous snack with the same tag
  snackbar send --tag volume "Volume 40%"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	f := sendCmd.Flags()
	f.StringVar(&sendOpts.variant, "variant", "",
		"Snack variant (info, success, warning, error)")
	f.StringVarP(&sendOpts.urgency, "urgency", "u", "normal",
		"Urgency level (low, normal, critical)")
	f.StringVarP(&sendOpts.category, "category", "c", "",
		"Notification category, e.g. transfer.complete")
	f.StringVarP(&sendOpts.appName, "app-name", "a", "snackbar",
		"Application name")
	f.StringVar(&sendOpts.action, "action", "",
		"Action as key=Label, or just a label for the default action")
	f.StringVar(&sendOpts.tag, "tag", "",
		"Stack tag; snacks with the same tag replace each other")
	f.IntVarP(&sendOpts.timeout, "timeout", "t", -1,
		"Auto-hide timeout in milliseconds (-1 = daemon default, 0 = persist)")
	f.BoolVarP(&sendOpts.persist, "persist", "p", false,
		"Keep the snack until it is closed")
	f.Uint32VarP(&sendOpts.replaceID, "replace-id", "r", 0,
		"Replace the snack with this id")
	f.BoolVarP(&sendOpts.wait, "wait", "w", false,
		"Wait until the snack closes")
	f.DurationVar(&sendOpts.waitTimeout, "wait-timeout", 0,
		"Give up waiting after this long (0 = no limit)")
}

func runSend(cmd *cobra.Command, args []string) error {
	n, err := buildNotification(args, sendOpts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := dbus.NewClient(logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	var events <-chan dbus.Event
	if sendOpts.wait {
		// Subscribe before sending so a fast close is not missed.
		events, err = client.Watch(ctx)
		if err != nil {
			return err
		}
	}

	id, err := client.Notify(ctx, n)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, id)

	if !sendOpts.wait {
		return nil
	}

	if sendOpts.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sendOpts.waitTimeout)
		defer cancel()
	}

	reason, actions, err := client.WaitClosed(ctx, events, id)
	for _, key := range actions {
		fmt.Fprintf(out, "action: %s\n", key)
	}
	if err != nil {
		return fmt.Errorf("failed waiting for snack %d: %w", id, err)
	}
	fmt.Fprintf(out, "closed: %s\n", reason)
	return nil
}

// buildNotification turns command arguments into a Notify call. The first
// argument is the summary; the rest form the body.
func buildNotification(args []string, opts sendOptions) (*dbus.DBusNotification, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	urgency, err := parseUrgency(opts.urgency)
	if err != nil {
		return nil, err
	}

	n := &dbus.DBusNotification{
		AppName:       opts.appName,
		ReplacesID:    opts.replaceID,
		Summary:       args[0],
		Body:          strings.Join(args[1:], " "),
		ExpireTimeout: int32(opts.timeout),
		Hints: map[string]godbus.Variant{
			"urgency": godbus.MakeVariant(urgency),
		},
	}
	if opts.persist {
		n.ExpireTimeout = 0
	}
	if opts.timeout < -1 {
		return nil, fmt.Errorf("invalid timeout %d, must be -1 or greater", opts.timeout)
	}

	if opts.variant != "" {
		v, err := model.ParseVariant(opts.variant)
		if err != nil {
			return nil, err
		}
		n.Hints[dbus.HintVariant] = godbus.MakeVariant(string(v))
	}
	if opts.category != "" {
		n.Hints["category"] = godbus.MakeVariant(opts.category)
	}
	if opts.tag != "" {
		n.Hints["x-dunst-stack-tag"] = godbus.MakeVariant(opts.tag)
	}
	if opts.action != "" {
		key, label := parseAction(opts.action)
		n.Actions = []string{key, label}
	}
	return n, nil
}

// parseUrgency maps an urgency name or number to the freedesktop byte value.
func parseUrgency(s string) (byte, error) {
	switch strings.ToLower(s) {
	case "low", "0":
		return dbus.UrgencyLow, nil
	case "", "normal", "1":
		return dbus.UrgencyNormal, nil
	case "critical", "2":
		return dbus.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("invalid urgency %q, must be low, normal or critical", s)
	}
}

// parseAction splits "key=Label". A bare label becomes the default action.
func parseAction(s string) (string, string) {
	if key, label, ok := strings.Cut(s, "="); ok && key != "" && label != "" {
		return key, label
	}
	return "default", s
}
