package gate

import (
	"context"
	"net"
	"testing"

	"github.com/rexlit/rexlit/internal/rexerr"
	"github.com/stretchr/testify/require"
)

func TestRequireRefusesWhenOffline(t *testing.T) {
	g := Init(false)
	err := g.Require("embedding")
	re, ok := rexerr.As(err, rexerr.KindNetworkRefused)
	require.True(t, ok)
	require.Equal(t, 5, re.ExitCode())
}

func TestRequireAllowsWhenOnline(t *testing.T) {
	g := Init(true)
	require.NoError(t, g.Require("embedding"))
}

func TestDialNeverInvokesDialerWhenOffline(t *testing.T) {
	dialed := false
	g := Init(false).WithDialer(func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialed = true
		return nil, nil
	})
	_, err := g.Dial(context.Background(), "embedding", "tcp", "example.com:443")
	require.Error(t, err)
	require.False(t, dialed, "no socket may be opened when online=false")
}

func TestResolvePrecedenceCLIBeatsEnvBeatsFileBeatsDefaults(t *testing.T) {
	t.Setenv("REXLIT_WORKERS", "4")
	t.Setenv("REXLIT_HOME", "")
	file := &Settings{RootDir: "/from/file", Workers: 2, BatchSize: 50}
	cliRoot := "/from/cli"
	s, err := Resolve(file, CLIOverrides{RootDir: &cliRoot})
	require.NoError(t, err)
	require.Equal(t, "/from/cli", s.RootDir) // CLI wins
	require.Equal(t, 4, s.Workers)           // env beats file
	require.Equal(t, 50, s.BatchSize)        // file beats default
}

func TestResolveRequiresRootDir(t *testing.T) {
	_, err := Resolve(nil, CLIOverrides{})
	re, ok := rexerr.As(err, rexerr.KindConfigError)
	require.True(t, ok)
	require.Equal(t, 1, re.ExitCode())
}
