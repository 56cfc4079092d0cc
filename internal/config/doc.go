// Package config defines daemon settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the alarms file path, the fire tolerance window
// and the ring handling policy.
package config
