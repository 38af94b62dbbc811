// Package config holds the settings of a clean run: input and output paths,
// probe behaviour, report format and history recording. Values come from
// defaults, an optional YAML file and command line flags, in increasing
// order of precedence.
package config
