package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/cartd/internal/cartview"
)

// setupHome points HOME at a temp dir holding a config that stores the cart
// under stateDir.
func setupHome(t *testing.T) (cfgPath, stateDir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	stateDir = filepath.Join(home, "state")
	dir := filepath.Join(home, ".config", "cartd")
	require.NoError(t, os.MkdirAll(dir, 0700))
	cfgPath = filepath.Join(dir, "config.yaml")
	content := "storage:\n  driver: file\n  dir: " + stateDir + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))
	return cfgPath, stateDir
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, cfgPath string, args ...string) (string, string, error) {
	t.Helper()
	outputJSON = false
	verbose = false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommands_Registered(t *testing.T) {
	want := []string{"show", "add", "remove", "set", "clear", "manifest", "catalog", "tui"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotEmpty(t, cmd.Short, name)
	}
}

func TestShow_EmptyCart(t *testing.T) {
	cfgPath, _ := setupHome(t)

	out, _, err := execute(t, cfgPath, "show")
	require.NoError(t, err)
	assert.Equal(t, cartview.EmptyList+"\n", out)
}

func TestAddSetRemove_PersistAcrossInvocations(t *testing.T) {
	cfgPath, stateDir := setupHome(t)

	_, _, err := execute(t, cfgPath, "add", "2")
	require.NoError(t, err)
	_, _, err = execute(t, cfgPath, "add", "2")
	require.NoError(t, err)
	out, _, err := execute(t, cfgPath, "add", "1")
	require.NoError(t, err)
	assert.Equal(t, "Joint Care Capsules\n  ₹499 x 2\nHerbal Tonic\n  ₹150 x 1\nTotal: ₹1148\n", out)

	out, _, err = execute(t, cfgPath, "set", "1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: ₹1448")

	out, _, err = execute(t, cfgPath, "remove", "2")
	require.NoError(t, err)
	assert.Equal(t, "Herbal Tonic\n  ₹150 x 3\nTotal: ₹450\n", out)

	data, err := os.ReadFile(filepath.Join(stateDir, "vanthu_cart.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"itemId":1,"name":"Herbal Tonic","unitPrice":150,"quantity":3}]`, string(data))
}

func TestSet_CoercesQuantity(t *testing.T) {
	cfgPath, _ := setupHome(t)

	_, _, err := execute(t, cfgPath, "add", "3")
	require.NoError(t, err)

	out, _, err := execute(t, cfgPath, "set", "3", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "₹120 x 1")

	out, _, err = execute(t, cfgPath, "set", "3", "4abc")
	require.NoError(t, err)
	assert.Contains(t, out, "₹120 x 4")
}

func TestUnknownReferences_AreNoOps(t *testing.T) {
	cfgPath, stateDir := setupHome(t)

	for _, args := range [][]string{
		{"add", "99"},
		{"add", "tonic"},
		{"remove", "1"},
		{"set", "1", "5"},
	} {
		out, _, err := execute(t, cfgPath, args...)
		require.NoError(t, err, args)
		assert.Equal(t, cartview.EmptyList+"\n", out, args)
	}

	_, err := os.Stat(filepath.Join(stateDir, "vanthu_cart.json"))
	assert.True(t, os.IsNotExist(err), "no-ops must not write")
}

func TestClear(t *testing.T) {
	cfgPath, _ := setupHome(t)

	_, _, err := execute(t, cfgPath, "add", "6")
	require.NoError(t, err)

	out, _, err := execute(t, cfgPath, "clear")
	require.NoError(t, err)
	assert.Equal(t, cartview.EmptyList+"\n", out)
}

func TestShow_JSON(t *testing.T) {
	cfgPath, _ := setupHome(t)

	_, _, err := execute(t, cfgPath, "add", "5")
	require.NoError(t, err)

	out, _, err := execute(t, cfgPath, "show", "--json")
	require.NoError(t, err)

	var doc cartview.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.ItemCount)
	assert.Equal(t, int64(80), doc.Total)
	assert.Equal(t, "₹", doc.Currency)
	assert.False(t, doc.Degraded)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "Antiseptic Gel", doc.Lines[0].Name)
}

func TestManifest(t *testing.T) {
	cfgPath, _ := setupHome(t)

	out, _, err := execute(t, cfgPath, "manifest")
	require.NoError(t, err)
	assert.Equal(t, "No items\n", out)

	_, _, err = execute(t, cfgPath, "add", "4")
	require.NoError(t, err)

	out, _, err = execute(t, cfgPath, "manifest", "--json")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Vitamin D Tablets (x1) — ₹299\n\nTotal: ₹299", got["manifest"])
}

func TestCatalog(t *testing.T) {
	cfgPath, _ := setupHome(t)

	out, _, err := execute(t, cfgPath, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "First Aid Kit")
	assert.Contains(t, out, "₹799")

	out, _, err = execute(t, cfgPath, "catalog", "--json")
	require.NoError(t, err)
	var got struct {
		Currency string `json:"currency"`
		Items    []struct {
			ID int `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "₹", got.Currency)
	assert.Len(t, got.Items, 6)
}

func TestUnreadableCart_StartsEmpty(t *testing.T) {
	cfgPath, stateDir := setupHome(t)
	require.NoError(t, os.MkdirAll(stateDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "vanthu_cart.json"), []byte("{not json"), 0600))

	out, stderr, err := execute(t, cfgPath, "show")
	require.NoError(t, err)
	assert.Equal(t, cartview.EmptyList+"\n", out)
	assert.Contains(t, stderr, "persisted cart malformed")
}

func TestInvalidConfig(t *testing.T) {
	cfgPath, _ := setupHome(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  driver: tape\n"), 0600))

	_, _, err := execute(t, cfgPath, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestVerbose_LogsIntentWithCartKey(t *testing.T) {
	cfgPath, _ := setupHome(t)

	_, stderr, err := execute(t, cfgPath, "--verbose", "add", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "cart intent applied")
	assert.Contains(t, stderr, "vanthu_cart")

	_, stderr, err = execute(t, cfgPath, "add", "1")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "cart intent applied")
}

func TestParseID(t *testing.T) {
	tests := map[string]int{"3": 3, "0": 0, "-1": -1, "abc": 0, "": 0}
	for in, want := range tests {
		assert.Equal(t, want, parseID(in), in)
	}
}
