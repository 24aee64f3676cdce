// Package device stores the switchable devices managed by Doorsense.
//
// A device has a name, a location and a two-valued status (on or off).
// Status changes overwrite the stored value unconditionally; the last
// writer wins.
package device
