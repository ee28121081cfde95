package classifier

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/draw"

	_ "image/jpeg"
	_ "image/png"
)

// loadTensor decodes the image, resizes it to size x size and returns a
// row-major [size][size][3] RGB tensor normalized to [0, 1].
func loadTensor(path string, size int) ([][][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("classifier: decode image: %w", err)
	}

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)

	tensor := make([][][]float64, size)
	for y := 0; y < size; y++ {
		row := make([][]float64, size)
		for x := 0; x < size; x++ {
			offset := resized.PixOffset(x, y)
			px := resized.Pix[offset : offset+3 : offset+3]
			row[x] = []float64{
				float64(px[0]) / 255,
				float64(px[1]) / 255,
				float64(px[2]) / 255,
			}
		}
		tensor[y] = row
	}
	return tensor, nil
}
