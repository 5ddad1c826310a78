package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "speech.mp3", want: "speech.mp3"},
		{name: "spaces", input: "My cool movie.mov", want: "My_cool_movie.mov"},
		{name: "traversal", input: "../../../etc/passwd", want: "etc_passwd"},
		{name: "windows separators", input: `C:\Users\me\clip.wav`, want: "C_Users_me_clip.wav"},
		{name: "umlauts", input: "i contain cool \u00fcml\u00e4uts.txt", want: "i_contain_cool_umlauts.txt"},
		{name: "unsafe characters", input: "a<b>|c?.flac", want: "abc.flac"},
		{name: "leading dots", input: "...hidden.ogg", want: "hidden.ogg"},
		{name: "only dots", input: "...", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "non latin", input: "\u5f55\u97f3.m4a", want: "m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.input))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "mp3", Extension("speech.MP3"))
	assert.Equal(t, "gz", Extension("archive.tar.gz"))
	assert.Equal(t, "", Extension("README"))
	assert.Equal(t, "", Extension("trailing."))
}

func TestIsSupported(t *testing.T) {
	for _, ext := range SupportedExtensions {
		assert.True(t, IsSupported("clip."+ext), ext)
		assert.True(t, IsSupported("CLIP."+strings.ToUpper(ext)), ext)
	}

	for _, name := range []string{"notes.txt", "wav", "clip.wav.txt", "clip.", "", "movie.mkv"} {
		assert.False(t, IsSupported(name), name)
	}
}

func TestSaveAndCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")

	n, err := SaveFile(src, strings.NewReader("RIFF-data"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	// Overwrites rather than appends.
	_, err = SaveFile(src, strings.NewReader("RIFF"))
	require.NoError(t, err)

	dst := filepath.Join(dir, "out.wav")
	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(got))
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"))
	assert.Error(t, err)
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, RemoveIfExists(path))
	assert.NoFileExists(t, path)

	assert.NoError(t, RemoveIfExists(path))
	assert.NoError(t, RemoveIfExists(""))
}

func TestTempPathIsUnique(t *testing.T) {
	dir := t.TempDir()

	a, err := TempPath(dir, ".wav")
	require.NoError(t, err)
	b, err := TempPath(dir, ".wav")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".wav"))
	assert.FileExists(t, a)
	assert.Equal(t, dir, filepath.Dir(a))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "nested")
	require.NoError(t, EnsureDir(dir))
	assert.DirExists(t, dir)
	require.NoError(t, EnsureDir(dir))
}
