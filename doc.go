// File: confstack/doc.go

// Package confstack assembles configuration from multiple sources
// (defaults, files, environment variables, command-line arguments,
// static overrides), merges them into a single hierarchical value tree,
// and binds that tree onto a typed struct.
//
// Features:
//   - Multiple configuration sources with fixed, predictable precedence
//   - Shallow or deep (recursive) merge strategies
//   - Environment source with prefix, separator, case control and
//     nested key expansion (APP_HTTP_PORT -> http.port)
//   - TOML, YAML, JSON and JSONC file decoding with format sniffing
//   - Field-descriptor driven resolution of nested config structs with
//     automatic prefix composition (APP + SERVER -> APP_SERVER_HOST)
//   - Injectable environment reader for deterministic tests
//   - Validation hook on the merged tree before binding
//
// Quick Start:
//
//	type Config struct {
//	    Server struct {
//	        Host string `config:"host"`
//	        Port int    `config:"port"`
//	    } `config:"server"`
//	}
//
//	var cfg Config
//	err := confstack.Quick(&cfg, "MYAPP", "config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Precedence (lowest to highest):
//  1. Default values
//  2. Configuration files (in registration order)
//  3. Environment variables (MYAPP_SERVER_PORT=9090)
//  4. Command-line arguments (--server.port=9090)
//  5. Static overrides
//
// A build is a single synchronous call: every source is collected, the
// trees are folded in precedence order under the chosen merge strategy,
// validators inspect the result, and the tree is bound to the target.
// Nothing is cached between builds; the process environment is read live.
package confstack
