// File: confstack/builder_test.go
package confstack_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confstack/confstack"
)

func TestBuilderPrecedenceChain(t *testing.T) {
	file := writeTestFile(t, "config.toml", `
[server]
host = "from-file"
port = 3000
timeout = 30
`)

	env := confstack.NewEnv().
		WithPrefix("APP").
		Nested(true).
		WithReader(confstack.MapEnv{
			"APP_SERVER_PORT": "9000",
			"APP_SERVER_NAME": "from-env",
		})

	tree, err := confstack.NewBuilder().
		WithDefaults(confstack.Tree{
			"server": confstack.Tree{"host": "default-host", "workers": int64(4)},
		}).
		WithFile(file).
		WithEnv(env).
		WithArgs([]string{"--server.host=from-cli"}).
		WithOverrides(map[string]any{"server.timeout": int64(60)}).
		Build()
	require.NoError(t, err)

	host, _ := tree.String("server.host")
	assert.Equal(t, "from-cli", host, "cli beats file and defaults")

	port, _ := tree.Int64("server.port")
	assert.Equal(t, int64(9000), port, "env beats file")

	name, _ := tree.String("server.name")
	assert.Equal(t, "from-env", name)

	workers, _ := tree.Int64("server.workers")
	assert.Equal(t, int64(4), workers, "defaults fill unset keys")

	timeout, _ := tree.Int64("server.timeout")
	assert.Equal(t, int64(60), timeout, "overrides beat everything")
}

func TestBuilderFlatEnvLosesToFile(t *testing.T) {
	// A flat env source materializes "http_port", not "http.port", so a
	// nested file value at http.port stays untouched. With nested
	// expansion the env value overrides it.
	file := writeTestFile(t, "config.yaml", "http:\n  port: 3000\n")
	vars := confstack.MapEnv{"PREFIX_HTTP_PORT": "9000"}

	t.Run("Flat", func(t *testing.T) {
		tree, err := confstack.NewBuilder().
			WithFile(file).
			WithEnv(confstack.NewEnv().WithPrefix("PREFIX").WithReader(vars)).
			Build()
		require.NoError(t, err)

		port, err := tree.Int64("http.port")
		require.NoError(t, err)
		assert.Equal(t, int64(3000), port)
		assert.Equal(t, int64(9000), tree["http_port"])
	})

	t.Run("Nested", func(t *testing.T) {
		tree, err := confstack.NewBuilder().
			WithFile(file).
			WithEnv(confstack.NewEnv().WithPrefix("PREFIX").Nested(true).WithReader(vars)).
			Build()
		require.NoError(t, err)

		port, err := tree.Int64("http.port")
		require.NoError(t, err)
		assert.Equal(t, int64(9000), port)
	})
}

func TestBuilderDeepMergeRetainsSiblings(t *testing.T) {
	file := writeTestFile(t, "config.toml", `
[database.pool]
maxsize = 50
minsize = 5
`)

	tree, err := confstack.NewBuilder().
		WithFile(file).
		WithEnv(confstack.NewEnv().
			WithPrefix("APP").
			Nested(true).
			WithReader(confstack.MapEnv{"APP_DATABASE_POOL_MAXSIZE": "100"})).
		Build()
	require.NoError(t, err)

	maxsize, err := tree.Int64("database.pool.maxsize")
	require.NoError(t, err)
	assert.Equal(t, int64(100), maxsize)

	minsize, err := tree.Int64("database.pool.minsize")
	require.NoError(t, err)
	assert.Equal(t, int64(5), minsize, "deep merge keeps untouched siblings")
}

func TestBuilderShallowStrategy(t *testing.T) {
	tree, err := confstack.NewBuilder().
		WithMergeStrategy(confstack.MergeShallow).
		WithDefaults(confstack.Tree{
			"server": confstack.Tree{"host": "localhost", "port": int64(8080)},
		}).
		WithOverrides(map[string]any{"server.port": int64(9090)}).
		Build()
	require.NoError(t, err)

	port, err := tree.Int64("server.port")
	require.NoError(t, err)
	assert.Equal(t, int64(9090), port)

	_, ok := tree.Lookup("server.host")
	assert.False(t, ok, "shallow merge replaces the whole server object")
}

func TestBuilderValidators(t *testing.T) {
	t.Run("Failure Aborts With No Partial Tree", func(t *testing.T) {
		tree, err := confstack.NewBuilder().
			WithDefaults(confstack.Tree{"port": int64(80)}).
			WithValidator(func(tr confstack.Tree) error {
				if port, err := tr.Int64("port"); err == nil && port < 1024 {
					return fmt.Errorf("port %d is privileged", port)
				}
				return nil
			}).
			Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, confstack.ErrValidation)
		assert.Nil(t, tree)
	})

	t.Run("Run In Order", func(t *testing.T) {
		var order []int
		_, err := confstack.NewBuilder().
			WithDefaults(confstack.Tree{}).
			WithValidator(func(confstack.Tree) error { order = append(order, 1); return nil }).
			WithValidator(func(confstack.Tree) error { order = append(order, 2); return nil }).
			Build()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, order)
	})
}

func TestBuilderSourceFailureAborts(t *testing.T) {
	_, err := confstack.NewBuilder().
		WithDefaults(confstack.Tree{"a": int64(1)}).
		WithFile("/definitely/not/there.toml").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, confstack.ErrSourceUnavailable)
}

func TestBuilderMalformedDefaultsJSON(t *testing.T) {
	_, err := confstack.NewBuilder().
		WithDefaultsJSON(`{"broken":`).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, confstack.ErrConfiguration)

	// A non-object literal is rejected too.
	_, err = confstack.NewBuilder().
		WithDefaultsJSON(`[1, 2, 3]`).
		Build()
	assert.ErrorIs(t, err, confstack.ErrConfiguration)
}

func TestBuilderFilesMergeInRegistrationOrder(t *testing.T) {
	base := writeTestFile(t, "base.toml", "[server]\nhost = \"base\"\nport = 1\n")
	local := writeTestFile(t, "local.toml", "[server]\nhost = \"local\"\n")

	tree, err := confstack.NewBuilder().
		WithFile(base).
		WithFile(local).
		Build()
	require.NoError(t, err)

	host, _ := tree.String("server.host")
	assert.Equal(t, "local", host, "later files override earlier ones")

	port, _ := tree.Int64("server.port")
	assert.Equal(t, int64(1), port)
}

func TestBuilderBuildAndBind(t *testing.T) {
	type Server struct {
		Host string `config:"host"`
		Port int    `config:"port"`
	}
	type Config struct {
		Server Server `config:"server"`
		Debug  bool   `config:"debug"`
	}

	var cfg Config
	err := confstack.NewBuilder().
		WithDefaults(confstack.Tree{
			"server": confstack.Tree{"host": "localhost", "port": int64(8080)},
		}).
		WithEnv(confstack.NewEnv().
			WithPrefix("APP").
			Nested(true).
			WithReader(confstack.MapEnv{"APP_DEBUG": "true"})).
		BuildAndBind(&cfg)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Debug)
}

func TestBuilderMustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		confstack.NewBuilder().WithFile("/definitely/not/there.toml").MustBuild()
	})
}

func TestBuilderFileDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "myapp.toml"), []byte("port = 7000\n"), 0644))

	t.Run("Found In Search Path", func(t *testing.T) {
		tree, err := confstack.NewBuilder().
			WithFileDiscovery(confstack.FileDiscoveryOptions{
				Name:       "myapp",
				Extensions: []string{".toml"},
				Paths:      []string{dir},
			}).
			Build()
		require.NoError(t, err)
		assert.Equal(t, int64(7000), tree["port"])
	})

	t.Run("CLI Flag Wins", func(t *testing.T) {
		explicit := writeTestFile(t, "other.toml", "port = 1234\n")
		tree, err := confstack.NewBuilder().
			WithFileDiscovery(confstack.FileDiscoveryOptions{
				Name:       "myapp",
				Extensions: []string{".toml"},
				Paths:      []string{dir},
				CLIFlag:    "--config",
				Args:       []string{"--config", explicit},
			}).
			Build()
		require.NoError(t, err)
		assert.Equal(t, int64(1234), tree["port"])
	})

	t.Run("Nothing Found Is Not An Error", func(t *testing.T) {
		tree, err := confstack.NewBuilder().
			WithFileDiscovery(confstack.FileDiscoveryOptions{
				Name:       "absent",
				Extensions: []string{".toml"},
				Paths:      []string{t.TempDir()},
			}).
			Build()
		require.NoError(t, err)
		assert.Empty(t, tree)
	})
}
