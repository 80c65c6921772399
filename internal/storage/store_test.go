package storage

import (
	"bytes"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutOpenDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Put("avatars", []byte("blob-bytes"), "png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	rc, err := store.Open(key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, []byte("blob-bytes"), data)

	require.NoError(t, store.Delete(key))
	_, err = store.Open(key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestStoreRejectsTraversalKeys(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "avatars/../../x"} {
		_, err := store.Open(key)
		assert.ErrorIs(t, err, ErrInvalidObjectKey, key)
	}
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 20, G: 40, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestNormalizeImageDownscales(t *testing.T) {
	data := encodePNG(t, 2048, 1024)

	out, err := NormalizeImage(data, MaxAvatarDim)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxAvatarDim, img.Bounds().Dx())
	assert.Equal(t, MaxAvatarDim/2, img.Bounds().Dy())
}

func TestNormalizeImageKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 100, 80)

	out, err := NormalizeImage(data, MaxAvatarDim)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, err := NormalizeImage([]byte("definitely not an image"), MaxAvatarDim)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
