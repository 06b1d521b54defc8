// Package config loads slack-send settings. Sources are layered, later ones
// winning: embedded defaults, the user config file, SLACK_SEND_* environment
// variables and command-line flags.
package config
