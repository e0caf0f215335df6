// Package logging provides structured JSON logging with size-based file
// rotation. Logs are written to the vault's .gladys/logs/ directory (or to
// ~/.gladys/logs/ when no vault is configured) and optionally mirrored to
// stderr for interactive sessions.
package logging
