package classifier

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/primatebot/core/config"
)

func TestDecide(t *testing.T) {
	pred := Decide(0.2)
	assert.Equal(t, LabelHuman, pred.Label)
	assert.InDelta(t, 0.8, pred.Confidence, 1e-9)
	assert.InDelta(t, 0.2, pred.Probability, 1e-9)

	pred = Decide(0.9)
	assert.Equal(t, LabelMonkey, pred.Label)
	assert.InDelta(t, 0.9, pred.Confidence, 1e-9)

	// the boundary belongs to the monkey class
	assert.Equal(t, LabelMonkey, Decide(0.5).Label)
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 128, B: 0, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadTensorShape(t *testing.T) {
	path := writeTestImage(t, 10, 6)

	tensor, err := loadTensor(path, 4)
	require.NoError(t, err)

	require.Len(t, tensor, 4)
	for _, row := range tensor {
		require.Len(t, row, 4)
		for _, px := range row {
			require.Len(t, px, 3)
			for _, v := range px {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}

	// uniform orange input survives resizing
	assert.InDelta(t, 1.0, tensor[0][0][0], 0.02)
	assert.InDelta(t, 128.0/255, tensor[0][0][1], 0.02)
	assert.InDelta(t, 0.0, tensor[0][0][2], 0.02)
}

func TestLoadTensorBadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	_, err := loadTensor(path, 4)
	assert.Error(t, err)
}

func serveModel(t *testing.T, probeStatus int, predictBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(probeStatus)
		case r.Method == http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(predictBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testConfig(url string) coreconfig.ClassifierConfig {
	return coreconfig.ClassifierConfig{
		URL:            url,
		Model:          "human_monkey",
		InputSize:      4,
		TimeoutSeconds: 5,
	}
}

func TestTFServingClassify(t *testing.T) {
	srv := serveModel(t, http.StatusOK, `{"predictions": [[0.1]]}`)
	defer srv.Close()

	c := NewTFServing(context.Background(), testConfig(srv.URL))
	require.True(t, c.Available())

	pred, err := c.Classify(context.Background(), writeTestImage(t, 8, 8))
	require.NoError(t, err)
	assert.Equal(t, LabelHuman, pred.Label)
	assert.InDelta(t, 0.9, pred.Confidence, 1e-9)
}

func TestTFServingProbeFailureDisables(t *testing.T) {
	srv := serveModel(t, http.StatusServiceUnavailable, "")
	defer srv.Close()

	c := NewTFServing(context.Background(), testConfig(srv.URL))
	assert.False(t, c.Available())

	_, err := c.Classify(context.Background(), writeTestImage(t, 8, 8))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTFServingModelError(t *testing.T) {
	srv := serveModel(t, http.StatusOK, `{"error": "tensor shape mismatch"}`)
	defer srv.Close()

	c := NewTFServing(context.Background(), testConfig(srv.URL))
	require.True(t, c.Available())

	_, err := c.Classify(context.Background(), writeTestImage(t, 8, 8))
	assert.ErrorContains(t, err, "tensor shape mismatch")
}

func TestTFServingDisabledByConfig(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Disabled = true

	c := NewTFServing(context.Background(), cfg)
	assert.False(t, c.Available())
}
