// Package mode implements home automation modes: named presets (eco,
// auto, comfort) with environmental targets, plus the rule engine that
// applies a mode by matching rules against the device catalog and
// flipping device active flags.
package mode
