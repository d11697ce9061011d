// File: confstack/cli_test.go
package confstack_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confstack/confstack"
)

func TestArgsSourceForms(t *testing.T) {
	src := confstack.NewArgs([]string{
		"--server.port=9090",
		"--server.host", "0.0.0.0",
		"--verbose",
		"--name", "svc",
		"positional",
	})

	tree, err := src.Collect()
	require.NoError(t, err)

	port, err := tree.Int64("server.port")
	require.NoError(t, err)
	assert.Equal(t, int64(9090), port)

	host, err := tree.String("server.host")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", host)

	verbose, err := tree.Bool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)

	assert.Equal(t, "svc", tree["name"])
	_, ok := tree.Lookup("positional")
	assert.False(t, ok)
}

func TestArgsSourceTrailingBoolean(t *testing.T) {
	tree, err := confstack.NewArgs([]string{"--debug"}).Collect()
	require.NoError(t, err)
	assert.Equal(t, true, tree["debug"])

	// A flag followed by another flag is also boolean.
	tree, err = confstack.NewArgs([]string{"--debug", "--port=80"}).Collect()
	require.NoError(t, err)
	assert.Equal(t, true, tree["debug"])
	assert.Equal(t, int64(80), tree["port"])
}

func TestArgsSourceValueCoercion(t *testing.T) {
	tree, err := confstack.NewArgs([]string{
		"--port=8080",
		"--version=1.0.0",
		"--hosts=[\"a\",\"b\"]",
	}).Collect()
	require.NoError(t, err)

	assert.Equal(t, int64(8080), tree["port"])
	assert.Equal(t, "1.0.0", tree["version"])
	assert.Equal(t, []any{"a", "b"}, tree["hosts"])
}

func TestArgsSourceInvalidSegment(t *testing.T) {
	_, err := confstack.NewArgs([]string{"--server..port=1"}).Collect()
	require.Error(t, err)
	assert.ErrorIs(t, err, confstack.ErrDecode)

	_, err = confstack.NewArgs([]string{"--bad key=1"}).Collect()
	assert.ErrorIs(t, err, confstack.ErrDecode)
}

func TestArgsSourceSeparatorIgnored(t *testing.T) {
	tree, err := confstack.NewArgs([]string{"--", "--port=80"}).Collect()
	require.NoError(t, err)
	assert.Equal(t, int64(80), tree["port"])
}

func TestArgsSourceLookup(t *testing.T) {
	src := confstack.NewArgs([]string{"--pool-size=10"})

	val, ok := src.Lookup("pool_size")
	require.True(t, ok, "underscored field matches kebab-case flag")
	assert.Equal(t, int64(10), val)
}

func TestFlagSetSource(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("port", 8080, "")
	fs.String("host", "localhost", "")
	fs.String("db-url", "", "")
	require.NoError(t, fs.Parse([]string{"--port=9090", "--db-url=postgres://db"}))

	src := confstack.NewFlagSet(fs).WithFieldMapping("database_url", "db-url")

	tree, err := src.Collect()
	require.NoError(t, err)

	// Only explicitly set flags contribute; host stays at its pflag
	// default and never enters the tree.
	assert.Equal(t, int64(9090), tree["port"])
	assert.Equal(t, "postgres://db", tree["database_url"])
	_, ok := tree.Lookup("host")
	assert.False(t, ok)
}

func TestFlagSetSourceLookup(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("pool-size", 5, "")
	fs.String("db-url", "", "")
	require.NoError(t, fs.Parse([]string{"--pool-size=20"}))

	src := confstack.NewFlagSet(fs).WithFieldMapping("database_url", "db-url")

	val, ok := src.Lookup("pool_size")
	require.True(t, ok)
	assert.Equal(t, int64(20), val)

	// db-url was never set on the command line
	_, ok = src.Lookup("database_url")
	assert.False(t, ok)
}

func TestFlagSetSourceNilFlags(t *testing.T) {
	src := confstack.NewFlagSet(nil)

	tree, err := src.Collect()
	require.NoError(t, err)
	assert.Empty(t, tree)

	_, ok := src.Lookup("anything")
	assert.False(t, ok)
}
