package extractor

import (
	"bytes"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Preprocess runs the OCR input pipeline on one rendered page image:
// grayscale, contrast stretch, median noise filtering, then sharpening.
// Failures fall back to the original bytes; a skipped cleanup pass is better
// than a lost page.
func Preprocess(pageImage []byte) []byte {
	src, _, err := image.Decode(bytes.NewReader(pageImage))
	if err != nil {
		return pageImage
	}

	gray := toGray(src)
	gray = stretchContrast(gray)
	gray = medianFilter(gray)
	gray = sharpen(gray)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return pageImage
	}
	return buf.Bytes()
}

func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	xdraw.Draw(gray, bounds, src, bounds.Min, xdraw.Src)
	return gray
}

// stretchContrast linearly rescales pixel intensities so the darkest 1% maps
// to 0 and the brightest 1% maps to 255.
func stretchContrast(img *image.Gray) *image.Gray {
	var histogram [256]int
	for _, v := range img.Pix {
		histogram[v]++
	}
	total := len(img.Pix)
	if total == 0 {
		return img
	}

	clip := total / 100
	lo, hi := 0, 255
	for sum := 0; lo < 255; lo++ {
		sum += histogram[lo]
		if sum > clip {
			break
		}
	}
	for sum := 0; hi > 0; hi-- {
		sum += histogram[hi]
		if sum > clip {
			break
		}
	}
	if hi <= lo {
		return img
	}

	out := image.NewGray(img.Bounds())
	scale := 255.0 / float64(hi-lo)
	for i, v := range img.Pix {
		stretched := float64(int(v)-lo) * scale
		out.Pix[i] = clampByte(stretched)
	}
	return out
}

// medianFilter applies a 3x3 median, which knocks out salt-and-pepper scan
// noise without blurring glyph edges the way a box blur would.
func medianFilter(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, img.Pix)

	var window [9]uint8
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			idx := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[idx] = img.GrayAt(x+dx, y+dy).Y
					idx++
				}
			}
			out.Pix[out.PixOffset(x, y)] = grayMedian(window)
		}
	}
	return out
}

func grayMedian(window [9]uint8) uint8 {
	// insertion sort; nine elements
	for i := 1; i < len(window); i++ {
		for j := i; j > 0 && window[j-1] > window[j]; j-- {
			window[j-1], window[j] = window[j], window[j-1]
		}
	}
	return window[4]
}

// sharpen applies a mild unsharp kernel to crisp glyph edges after the
// median pass softened them.
func sharpen(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, img.Pix)

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(img.GrayAt(x, y).Y)
			neighbors := float64(img.GrayAt(x-1, y).Y) +
				float64(img.GrayAt(x+1, y).Y) +
				float64(img.GrayAt(x, y-1).Y) +
				float64(img.GrayAt(x, y+1).Y)
			sharpened := 5*center - neighbors
			out.Pix[out.PixOffset(x, y)] = clampByte(sharpened)
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
