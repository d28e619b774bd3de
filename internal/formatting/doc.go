// Package formatting renders CLI output as a table, JSON or YAML.
package formatting
