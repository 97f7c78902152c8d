package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fanout/internal/config"
	"go-fanout/internal/domain"
)

// execute runs the root command in a scratch directory holding a config
// file built from mutate, and returns what was written to stdout.
func execute(t *testing.T, stdin string, mutate func(*config.Config), args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	c := config.DefaultConfig()
	if mutate != nil {
		mutate(c)
	}
	path := filepath.Join(dir, "docworker.yaml")
	require.NoError(t, c.Save(path))

	var stdout bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs(append(args, "--config", path))
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestRun_Normal(t *testing.T) {
	out, err := execute(t, `{"inputPath":"doc.txt"}`+"\n", nil, "run")
	require.Error(t, err, "input does not exist yet")
	assert.Empty(t, out)

	require.NoError(t, os.WriteFile("doc.txt", []byte("hello\n"), 0o644))
	var stdout bytes.Buffer
	rootCmd.SetIn(strings.NewReader(`{"inputPath":"doc.txt"}` + "\n"))
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"run", "--config", "docworker.yaml"})
	require.NoError(t, rootCmd.Execute())

	assert.True(t, strings.HasSuffix(stdout.String(), "\n"))
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
	assert.JSONEq(t, `{"inputPath":"doc.txt","outputPath":"doc.out"}`, stdout.String())

	got, err := os.ReadFile("doc.out")
	require.NoError(t, err)
	assert.Equal(t, "out:hello\n", string(got))
}

func TestRun_UnreachableLedgerDoesNotFailInvocation(t *testing.T) {
	unreachable := func(c *config.Config) {
		c.Postgres.DSN = "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1"
	}
	_, err := execute(t, "", unreachable, "run")
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)

	require.NoError(t, os.WriteFile("doc.txt", []byte("hello\n"), 0o644))
	var stdout bytes.Buffer
	rootCmd.SetIn(strings.NewReader(`{"inputPath":"doc.txt"}` + "\n"))
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"run", "--config", "docworker.yaml"})
	require.NoError(t, rootCmd.Execute())

	assert.JSONEq(t, `{"inputPath":"doc.txt","outputPath":"doc.out"}`, stdout.String())
	got, err := os.ReadFile("doc.out")
	require.NoError(t, err)
	assert.Equal(t, "out:hello\n", string(got))
}

func TestRootCommandRunsInvocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.0.part.out"), []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.1.part.out"), []byte("b\n"), 0o644))

	record := `{"children":[{"inputPath":"doc.0.part"},{"inputPath":"doc.1.part"}],"childrenCompleted":2,"childrenTotal":2}`
	out, err := execute(t, record, nil)
	// execute moved into a fresh directory, so the child outputs are elsewhere.
	assert.ErrorIs(t, err, domain.ErrMissingChildOutput)
	assert.Empty(t, out)

	t.Chdir(dir)
	var stdout bytes.Buffer
	rootCmd.SetIn(strings.NewReader(record))
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "absent.yaml")})
	require.NoError(t, rootCmd.Execute())

	assert.JSONEq(t, record[:len(record)-1]+`,"outputPath":"doc.out"}`, stdout.String())
	got, err := os.ReadFile(filepath.Join(dir, "doc.out"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(got))
}

func TestRun_NamePolicyWithIDNaming(t *testing.T) {
	mutate := func(c *config.Config) {
		c.Policy.Kind = "name"
		c.Naming.Scheme = "id"
	}
	record := `{"id":"job-1","name":"test-split#1","inputPath":"doc.txt"}`

	_, err := execute(t, "", mutate, "run")
	assert.ErrorIs(t, err, domain.ErrMalformedRecord, "empty stdin is not a record")

	require.NoError(t, os.WriteFile("doc.txt", []byte("1\n2\n3\n4\n"), 0o644))
	var stdout bytes.Buffer
	rootCmd.SetIn(strings.NewReader(record))
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"run", "--config", "docworker.yaml"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stdout.String(), `"children":[`)
	assert.Equal(t, 2, strings.Count(stdout.String(), ".part"))
}

func TestInvalidConfigIsRejected(t *testing.T) {
	_, err := execute(t, `{}`, func(c *config.Config) { c.Naming.Scheme = "hash" }, "run")
	assert.ErrorContains(t, err, "invalid config")
}

func TestReadRecordTakesFirstLine(t *testing.T) {
	got, err := readRecord(strings.NewReader("{\"a\":1}\n{\"b\":2}\n"))
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(got))

	got, err = readRecord(strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}
