// Package theme handles CSS theme loading and hot-reload for snackbar popups.
// Themes are looked up in ~/.config/snackbar/themes/ first and fall back to
// the bundled themes. Every theme styles the .snack classes and the
// per-variant classes (.info, .success, .warning, .error).
package theme
