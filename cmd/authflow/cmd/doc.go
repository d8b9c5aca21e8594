// Package cmd implements the authflow command line: terminal login and
// registration views over an authflow.Client, session inspection, and a
// development identity server.
//
// Configuration is read from an optional YAML file (--config-file), then
// AUTHFLOW_* environment variables, then flags. A .env file in the working
// directory is loaded first.
package cmd
