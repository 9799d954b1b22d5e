package utils

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedFrame(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestUtils_ShouldDownloadImage(t *testing.T) {
	data := encodedFrame(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	f, err := DownloadImage(srv.URL + "/frame.png")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestUtils_ShouldRejectNonImageDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text body"))
	}))
	defer srv.Close()

	_, err := DownloadImage(srv.URL)
	assert.Error(t, err)
}

func TestUtils_ShouldRejectFailedDownload(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := DownloadImage(srv.URL)
	assert.Error(t, err)
}

func TestUtils_ShouldBeValidUrl(t *testing.T) {
	assert.True(t, IsValidUrl("https://github.com/esimov/redetect/"))
	assert.False(t, IsValidUrl("testdata/frame.png"))
	assert.False(t, IsValidUrl("-"))
}

func TestUtils_ShouldDetectValidFileType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, encodedFrame(t), 0644))

	ftype, err := DetectContentType(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ftype)
}
