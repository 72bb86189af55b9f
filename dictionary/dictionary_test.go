package dictionary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vocabmine/logger"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(2, logger.NewLogger(logger.TestConfig()))
	require.NoError(t, err)
	return l
}

func TestParseName(t *testing.T) {
	t.Run("Should default to ipa", func(t *testing.T) {
		n, err := ParseName("")
		require.NoError(t, err)
		assert.Equal(t, IPA, n)
	})
	t.Run("Should accept uni case-insensitively", func(t *testing.T) {
		n, err := ParseName(" UNI ")
		require.NoError(t, err)
		assert.Equal(t, UniDic, n)
	})
	t.Run("Should reject unknown names", func(t *testing.T) {
		_, err := ParseName("jumandic")
		assert.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load the embedded ipa dictionary and cache the handle", func(t *testing.T) {
		l := newTestLoader(t)
		d1, err := l.Load(t.Context(), Spec{Name: "ipa"})
		require.NoError(t, err)
		require.NotNil(t, d1.Kagome())
		assert.Equal(t, layouts[IPA], d1.Layout)

		d2, err := l.Load(t.Context(), Spec{})
		require.NoError(t, err)
		assert.Same(t, d1, d2)
		assert.Equal(t, 1, l.Len())
	})
	t.Run("Should fail with ErrDictionaryUnavailable for a missing file", func(t *testing.T) {
		l := newTestLoader(t)
		_, err := l.Load(t.Context(), Spec{Path: filepath.Join(t.TempDir(), "missing.dict")})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDictionaryUnavailable)
		assert.ErrorIs(t, err, os.ErrNotExist)
		var de *DictionaryError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "ipa", de.Name)
	})
	t.Run("Should fail for a corrupt file", func(t *testing.T) {
		l := newTestLoader(t)
		l.openFile = func(string) (*dict.Dict, error) { return nil, errors.New("bad zip") }
		path := filepath.Join(t.TempDir(), "corrupt.dict")
		require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
		_, err := l.Load(t.Context(), Spec{Path: path})
		assert.ErrorIs(t, err, ErrDictionaryUnavailable)
		assert.Equal(t, 0, l.Len())
	})
	t.Run("Should fail for an unknown flavour", func(t *testing.T) {
		l := newTestLoader(t)
		_, err := l.Load(t.Context(), Spec{Name: "nope"})
		assert.ErrorIs(t, err, ErrDictionaryUnavailable)
	})
	t.Run("Should turn a panicking embedded loader into an error", func(t *testing.T) {
		l := newTestLoader(t)
		l.embedded[IPA] = func() *dict.Dict { panic("truncated") }
		_, err := l.Load(t.Context(), Spec{Name: "ipa"})
		assert.ErrorIs(t, err, ErrDictionaryUnavailable)
	})
	t.Run("Should honour a cancelled context", func(t *testing.T) {
		l := newTestLoader(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := l.Load(ctx, Spec{Name: "ipa"})
		assert.Error(t, err)
	})
}
