// Package tui is a terminal render adapter for the widget engine: the same
// thin boundary a shadow-DOM renderer occupies in a browser embed. It
// derives everything it draws from the engine's Snapshot and uses the
// delta stream only as a repaint signal.
package tui
