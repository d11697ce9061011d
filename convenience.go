// File: confstack/convenience.go
package confstack

import (
	"fmt"
	"os"
)

// Quick loads configuration into target with a single call: an optional
// config file (auto-detected format), environment variables under the
// given prefix with nested key expansion, command-line arguments, and
// deep merging. This is the recommended entry point for most
// applications.
func Quick(target any, envPrefix, configFile string) error {
	builder := NewBuilder().
		WithArgs(os.Args[1:])

	if configFile != "" {
		builder.WithOptionalFile(configFile)
	}
	if envPrefix != "" {
		builder.WithEnvPrefix(envPrefix)
	}

	return builder.BuildAndBind(target)
}

// MustQuick is like Quick but panics on error.
func MustQuick(target any, envPrefix, configFile string) {
	if err := Quick(target, envPrefix, configFile); err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
}
