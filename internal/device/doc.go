// Package device holds the household appliance catalog: typed devices
// with a power rating and an on/off flag, optionally assigned to a room.
//
// The package is persistence and validation only. Bulk state changes
// driven by automation rules live in the mode package.
package device
