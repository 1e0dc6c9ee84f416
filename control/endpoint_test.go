package control

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePrivateDirCreatesWithPrivateMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are not meaningful on windows")
	}
	dir := filepath.Join(t.TempDir(), "run")
	require.NoError(t, ensurePrivateDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(privateDirMode), info.Mode().Perm())
}

func TestEnsurePrivateDirRejectsLooseMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are not meaningful on windows")
	}
	dir := filepath.Join(t.TempDir(), "run")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	err := ensurePrivateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rwx------")
}

func TestEnsurePrivateDirAcceptsExistingPrivateDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are not meaningful on windows")
	}
	dir := filepath.Join(t.TempDir(), "run")
	require.NoError(t, os.MkdirAll(dir, privateDirMode))

	assert.NoError(t, ensurePrivateDir(dir))
}
