// Package daemon wires snackbard together: it bridges D-Bus notifications
// into the snack provider, raises the daemon's own notices and reloads
// configuration when it changes on disk.
package daemon
