package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const messagePact = `{
	"consumer": {"name": "orders"},
	"provider": {"name": "billing"},
	"messages": [{"description": "order placed", "contents": {"id": 7}}],
	"metadata": {"pactSpecification": {"version": "3.0.0"}}
}`

func writePact(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "pact.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidate(t *testing.T) {
	good := writePact(t, messagePact)
	bad := writePact(t, `{"interactions": [{"type": "Plugin/Thing"}]}`)

	stdout, stderr, err := run("validate", good, bad)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed to load")
	assert.Contains(t, stdout, "orders -> billing, pact specification 3.0.0, 1 interactions")
	assert.Contains(t, stderr, "unknown interaction type")
}

func TestConvert(t *testing.T) {
	path := writePact(t, messagePact)
	output := filepath.Join(t.TempDir(), "v4.json")

	_, _, err := run("convert", "--version", "4", "-o", output, path)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "4.0.0", gjson.GetBytes(data, "metadata.pactSpecification.version").String())
	assert.Equal(t, "Asynchronous/Messages", gjson.GetBytes(data, "interactions.0.type").String())
}

func TestConvertRejectsUnknownVersion(t *testing.T) {
	_, _, err := run("convert", "--version", "next", writePact(t, messagePact))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported pact specification "next"`)
}

func TestKeys(t *testing.T) {
	stdout, _, err := run("keys", writePact(t, messagePact))
	require.NoError(t, err)

	fields := strings.Split(strings.TrimSpace(stdout), "\t")
	require.Len(t, fields, 3)
	assert.Len(t, fields[0], 16)
	assert.Equal(t, "Asynchronous/Messages", fields[1])
	assert.Equal(t, "order placed", fields[2])
}
