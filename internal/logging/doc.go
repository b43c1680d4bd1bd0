// Package logging configures structured slog output for gazette.
//
// It provides console (key=value) and JSON handlers, helper constructors for
// attributes, and the standardized field names used across components.
package logging
