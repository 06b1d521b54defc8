// Package paths locates slack-send's files on disk.
//
// Directories follow the XDG Base Directory layout:
//
//   - Config: $XDG_CONFIG_HOME/slack-send (config.toml, config.yaml)
//   - State: $XDG_STATE_HOME/slack-send (slack-send.log)
//
// Paths read from configuration may start with "~", which ExpandHome
// resolves against the user's home directory.
package paths
