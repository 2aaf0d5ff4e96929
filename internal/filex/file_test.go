package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir(".escrow-agent")
	require.NoError(t, err)

	want := filepath.Join(tmp, ".escrow-agent")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureSubdDir(".escrow-agent")
	require.NoError(t, err)

	second, err := EnsureSubdDir(".escrow-agent")
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile(".escrow-agent", []byte("x"), 0o660))

	_, err := EnsureSubdDir(".escrow-agent")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestReadFile(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "contract.txt")
	require.NoError(t, os.WriteFile(p, []byte("terms"), 0o600))

	name, b, err := ReadFile(p, 0)
	require.NoError(t, err)
	require.Equal(t, "contract.txt", name)
	require.Equal(t, []byte("terms"), b)
}

func TestReadFile_Errors(t *testing.T) {
	tmp := t.TempDir()

	_, _, err := ReadFile(filepath.Join(tmp, "missing"), 0)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = ReadFile(tmp, 0)
	require.ErrorIs(t, err, ErrNotRegular)

	p := filepath.Join(tmp, "big")
	require.NoError(t, os.WriteFile(p, []byte("0123456789"), 0o600))
	_, _, err = ReadFile(p, 4)
	require.ErrorIs(t, err, ErrTooLarge)
}
