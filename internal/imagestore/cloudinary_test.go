package imagestore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messmate/internal/config"
)

func TestSign(t *testing.T) {
	// example from the Cloudinary signature docs
	got := sign(map[string]string{
		"eager":     "w_400,h_300,c_pad|w_260,h_200,c_crop",
		"public_id": "sample_image",
		"timestamp": "1315060510",
		"api_key":   "ignored",
	}, "abcd")
	assert.Equal(t, "bfd09f95f331f558cbd1320e67aa8d488770583e", got)
}

func TestNew_DisabledWithoutCredentials(t *testing.T) {
	c := New(config.CloudinaryConfig{CloudName: "demo"})
	assert.Nil(t, c)
	_, err := c.UploadFile(context.Background(), []byte("x"), "x.jpg", "")
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestUploadFile(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = r.MultipartForm.Value
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpegbytes", string(data))
		_, _ = w.Write([]byte(`{"public_id":"messmate/food/food-7","secure_url":"https://res.example/food-7.jpg","width":640,"height":480,"bytes":9}`))
	}))
	defer srv.Close()

	c := New(config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "messmate/food"})
	require.NotNil(t, c)
	c.BaseURL = srv.URL
	c.Now = func() time.Time { return time.Unix(1700000000, 0) }

	img, err := c.UploadFile(context.Background(), []byte("jpegbytes"), "dosa.jpg", "food-7")
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/food-7.jpg", img.SecureURL)

	assert.Equal(t, []string{"key"}, form["api_key"])
	assert.Equal(t, []string{"1700000000"}, form["timestamp"])
	want := sign(map[string]string{
		"timestamp": "1700000000",
		"folder":    "messmate/food",
		"public_id": "food-7",
		"overwrite": "true",
	}, "secret")
	assert.Equal(t, []string{want}, form["signature"])
}

func TestUpload_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	c.BaseURL = srv.URL
	_, err := c.UploadDataURL(context.Background(), "data:image/png;base64,AAAA", "")
	assert.ErrorContains(t, err, "401")
}
