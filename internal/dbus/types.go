package dbus

import (
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/snackbar/internal/model"
)

// Urgency levels from the freedesktop notification specification.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// HintVariant selects a snack variant directly, overriding urgency and
// category (notify-send -h string:x-snackbar-variant:success).
const HintVariant = "x-snackbar-variant"

// Meta keys set on snacks created from D-Bus notifications.
const (
	MetaAppName = "app_name"
	MetaAppIcon = "app_icon"
	MetaDBusID  = "dbus_id"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the spec.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// CloseReasonFor maps a snack close reason to the D-Bus reason code.
// Clickaway never closes a snack and maps to undefined.
func CloseReasonFor(reason model.CloseReason) CloseReason {
	switch reason {
	case model.CloseReasonTimeout, model.CloseReasonForced:
		return CloseReasonExpired
	case model.CloseReasonManually, model.CloseReasonAction:
		return CloseReasonDismissed
	default:
		return CloseReasonUndefined
	}
}

// DBusNotification represents an incoming D-Bus Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// ParsedActions converts the D-Bus action array to structured form.
// An incomplete trailing pair is ignored.
func (n *DBusNotification) ParsedActions() []model.Action {
	actions := make([]model.Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, model.Action{Key: n.Actions[i], Label: n.Actions[i+1]})
	}
	return actions
}

// PrimaryAction returns the "default" action if present, else the first
// action. Snacks carry a single action.
func (n *DBusNotification) PrimaryAction() *model.Action {
	actions := n.ParsedActions()
	if len(actions) == 0 {
		return nil
	}
	for _, a := range actions {
		if a.Key == "default" {
			return &a
		}
	}
	return &actions[0]
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (n *DBusNotification) boolHint(key string) bool {
	if v, ok := n.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Urgency extracts the urgency hint. Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// StackTag extracts the dunst-style stack tag. Notifications sharing a tag
// replace each other.
func (n *DBusNotification) StackTag() string {
	if tag := n.stringHint("x-dunst-stack-tag"); tag != "" {
		return tag
	}
	return n.stringHint("stack-tag")
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	return n.boolHint("transient")
}

// Resident returns true if the resident hint is set. Resident
// notifications stay open after an action is invoked.
func (n *DBusNotification) Resident() bool {
	return n.boolHint("resident")
}

// Variant picks the snack variant. An explicit x-snackbar-variant hint
// wins; otherwise critical urgency and *.error categories map to error,
// transfer.complete to success and everything else to info.
func (n *DBusNotification) Variant() model.Variant {
	if hint := n.stringHint(HintVariant); hint != "" {
		if v, err := model.ParseVariant(hint); err == nil {
			return v
		}
	}
	if n.Urgency() >= UrgencyCritical {
		return model.VariantError
	}
	category := n.Category()
	switch {
	case strings.HasSuffix(category, ".error"):
		return model.VariantError
	case category == "transfer.complete":
		return model.VariantSuccess
	case strings.HasSuffix(category, ".warning"):
		return model.VariantWarning
	}
	return model.VariantInfo
}

// Message joins summary and body on separate lines.
func (n *DBusNotification) Message() string {
	summary := strings.TrimSpace(n.Summary)
	body := strings.TrimSpace(n.Body)
	switch {
	case body == "":
		return summary
	case summary == "":
		return body
	default:
		return summary + "\n" + body
	}
}

// Snack converts the notification into a snack. expire_timeout 0 persists,
// a positive value is the auto-hide duration in milliseconds, and -1
// leaves the provider default. Critical notifications persist when
// criticalPersists is set unless a positive timeout was given.
func (n *DBusNotification) Snack(criticalPersists bool) model.Snack {
	s := model.Snack{
		Message:       n.Message(),
		Variant:       n.Variant(),
		Action:        n.PrimaryAction(),
		DynamicHeight: strings.TrimSpace(n.Body) != "",
		Meta:          map[string]string{},
	}

	switch {
	case n.ExpireTimeout == 0:
		s.Persist = model.Ptr(true)
	case n.ExpireTimeout > 0:
		s.AutoHideDuration = model.Ptr(time.Duration(n.ExpireTimeout) * time.Millisecond)
	case criticalPersists && n.Urgency() >= UrgencyCritical:
		s.Persist = model.Ptr(true)
	}

	if n.AppName != "" {
		s.Meta[MetaAppName] = n.AppName
	}
	if n.AppIcon != "" {
		s.Meta[MetaAppIcon] = n.AppIcon
	}
	return s
}

// ServerCapabilities lists the capabilities advertised by snackbard.
var ServerCapabilities = []string{
	"actions",
	"body",
	"icon-static",
	"sound",
	"x-snackbar-variant",
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "snackbard",
		Vendor:      "snackbar",
		Version:     "0.0.1",
		SpecVersion: "1.2",
	}
}
