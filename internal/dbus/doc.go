// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
// The server side receives Notify calls from applications and turns them
// into snacks; the client side backs `snackbar send`.
package dbus
