// Package display renders snacks as GTK4 layer-shell popup windows.
//
// Renderer implements provider.Renderer. Every Render call is reconciled
// on the GTK main loop: new snacks get a window anchored to the configured
// screen corner with the stack offset applied as a layer-shell margin,
// closing snacks get the "closing" CSS class and are destroyed after a
// short exit delay, and measured heights, hovers, clicks and action
// presses are reported back through provider.Callbacks.
package display
