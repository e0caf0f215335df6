// Package configs provides embedded configuration templates for Gladys.
//
// Templates are embedded at build time with go:embed so they ship inside
// the binary regardless of how it was installed.
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.config/gladys/config.yaml)
//  3. Vault config (<vault>/.gladys/config.yaml)
//  4. Environment variables (GLADYS_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration,
// written by `gladys init --user` to ~/.config/gladys/config.yaml.
// Holds machine-specific settings such as the Ollama host.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// VaultConfigTemplate is the template for vault-level configuration,
// written by `gladys init` to <vault>/.gladys/config.yaml.
// Holds per-vault settings such as exclusions and chunking.
//
//go:embed vault-config.example.yaml
var VaultConfigTemplate string
