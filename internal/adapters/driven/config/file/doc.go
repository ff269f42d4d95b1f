// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable instruction preambles
//   - PolicyWatcher: TOML or YAML policy files, reloaded on change
//
// LoadSettings resolves domain.AppSettings from a ConfigStore and the environment.
package file
