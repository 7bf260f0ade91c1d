package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const branchDoc = `{
  "structs": [],
  "externs": [],
  "functions": [
    {"name": "main", "prms": [], "rettyp": "Int", "locals": [], "stmts": [
      {"If": {"guard": {"Num": 1}, "tt": [{"Return": {"Num": 1}}], "ff": [{"Return": {"Num": 2}}]}}
    ]},
    {"name": "aux", "prms": [], "rettyp": "Int", "locals": [], "stmts": [
      {"If": {"guard": {"Num": 1}, "tt": [{"Return": {"Num": 1}}], "ff": [{"Return": {"Num": 2}}]}}
    ]}
  ]
}`

const branchFunc = `let _const_1:int, _const_2:int

%[1]v_entry:
  _const_1 = $const 1
  _const_2 = $const 2
  $branch _const_1 if_true0 if_false1

if_end2:
  $ret

if_false1:
  $ret _const_2

if_true0:
  $ret _const_1
}

`

func writeDoc(t *testing.T) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "branch.json")

	err := os.WriteFile(name, []byte(branchDoc), 0o644)
	require.NoError(t, err)

	return name
}

func TestLowerFiles(t *testing.T) {
	name := writeDoc(t)

	cfg, err := loadConfig("", "")
	require.NoError(t, err)

	var b bytes.Buffer

	err = lowerFiles(context.Background(), &b, cfg, []string{name})
	require.NoError(t, err)

	exp := "funptr aux : &fn () -> int\n\n" +
		"fn aux() -> int {\n" + fmt.Sprintf(branchFunc, "aux") +
		"fn main() -> int {\n" + fmt.Sprintf(branchFunc, "main")

	assert.Equal(t, exp, b.String())
}

func TestCheckFiles(t *testing.T) {
	name := writeDoc(t)

	cfg, err := loadConfig("", "")
	require.NoError(t, err)

	var b bytes.Buffer

	err = checkFiles(context.Background(), &b, cfg, []string{name})
	require.NoError(t, err)

	assert.Equal(t, name+": ok: 2 functions, 8 blocks\n"+
		name+": aux: unreachable blocks [if_end2]\n"+
		name+": main: unreachable blocks [if_end2]\n", b.String())
}

func TestParseFiles(t *testing.T) {
	name := writeDoc(t)

	var b bytes.Buffer

	err := parseFiles(context.Background(), &b, []string{name})
	require.NoError(t, err)
	assert.Contains(t, b.String(), "ast: ")

	err = parseFiles(context.Background(), &b, []string{filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestLoadConfigOverride(t *testing.T) {
	name := filepath.Join(t.TempDir(), "cflat.toml")

	err := os.WriteFile(name, []byte("entry = \"start\"\nverify = false\n"), 0o644)
	require.NoError(t, err)

	cfg, err := loadConfig(name, "")
	require.NoError(t, err)
	assert.Equal(t, "start", cfg.Entry)
	assert.False(t, cfg.Verify)

	cfg, err = loadConfig(name, "aux")
	require.NoError(t, err)
	assert.Equal(t, "aux", cfg.Entry)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	assert.Error(t, err)
}
