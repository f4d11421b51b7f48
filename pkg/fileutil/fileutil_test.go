package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paideia-dao/paideia-site/pkg/failure"
	"github.com/paideia-dao/paideia-site/pkg/fileutil"
)

func TestEnsureDir(t *testing.T) {
	root := t.TempDir()

	err := fileutil.EnsureDir(root, "education", "nested")
	require.Nil(t, err)

	info, statErr := os.Stat(filepath.Join(root, "education", "nested"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	// idempotent
	assert.Nil(t, fileutil.EnsureDir(root, "education", "nested"))
}

func TestEnsureDir_PathIsAFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := fileutil.EnsureDir(blocker, "child")
	require.NotNil(t, err)

	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	assert.Equal(t, failure.SeverityFatal, err.Severity())
}

func TestWriteFileAtomic(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "education", "index.html")

	require.Nil(t, fileutil.WriteFileAtomic(target, []byte("<html>v1</html>")))
	require.Nil(t, fileutil.WriteFileAtomic(target, []byte("<html>v2</html>")))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<html>v2</html>", string(got))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
