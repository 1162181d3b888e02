// Package room manages the physical spaces devices are assigned to.
// A room has a location name and an optional managing user.
package room
