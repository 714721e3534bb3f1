// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, Version+"\n", out.String())
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := executeCommand(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "runeforge "+Version+" (go")
}

func TestRootCmd_NoArgs(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Runeforge scores the candidates of a rules catalog")
	assert.Contains(t, out.String(), "explain")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := writeFile(t, env.dir, "runeforge.yaml", "output:\n  format: pdf\n")

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "plan", "-f", env.blueprint})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format must be one of")
}

func TestRootCmd_ConfigFileSettings(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := writeFile(t, env.dir, "runeforge.yaml", "engine:\n  seed: 11\n  rules_path: "+env.rules+"\noutput:\n  format: yaml\n")

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "--env-file", "", "plan", "-f", env.blueprint})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "seed: 11")
	assert.Contains(t, out.String(), "database: PostgreSQL")
}

func TestRootCmd_EnvFile(t *testing.T) {
	env := newTestEnv(t)
	envPath := writeFile(t, env.dir, "test.env", "RUNEFORGE_ENGINE_SEED=23\n")
	t.Cleanup(func() { _ = os.Unsetenv("RUNEFORGE_ENGINE_SEED") })

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--env-file", envPath, "--config", writeFile(t, env.dir, "empty.yaml", "{}\n"), "plan", "-f", env.blueprint, "--rules", env.rules})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, uint64(23), decodePlan(t, out.String()).Meta.Seed)
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)
	assert.NotNil(t, getLoggerFromContext(context.Background()))
}
