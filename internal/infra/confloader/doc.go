// Package confloader provides configuration loading mechanism.
//
// It loads YAML files and environment variables with koanf and
// unmarshals them into koanf-tagged structs.
//
// Priority (highest to lowest):
//
//  1. Values loaded with LoadMap after Load (command-line flags)
//  2. Environment variables (HOSTLINK_ prefix)
//  3. Configuration file
//  4. Values already present in the target struct (defaults)
//
// Environment variable names are matched against the target's keys, so
// HOSTLINK_HOST_DISPATCH_WORKERS sets host.dispatch_workers even though
// the key itself contains underscores.
//
// Watcher reports changes to watched files via fsnotify.
package confloader
