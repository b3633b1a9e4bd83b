package icon

import (
	"image"
	"image/png"
	"io"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/x11"
	"golang.org/x/image/draw"
)

// RawIcon is a bitmap with 4 bytes per pixel in R, G, B, A order.
type RawIcon struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Pixels []byte `json:"pixels"`
}

// ParseEmbedded picks the largest bitmap out of a _NET_WM_ICON value, a
// sequence of [width, height, width*height ARGB pixels] blocks. Parsing
// stops at the first block that overruns the data; whatever was found
// before it is kept. Equal areas keep the earlier block.
func ParseEmbedded(values []uint32) (RawIcon, bool) {
	var (
		bestAt   = -1
		bestArea uint64
		cursor   int
	)

	for cursor+2 <= len(values) {
		w, h := values[cursor], values[cursor+1]
		area := uint64(w) * uint64(h)
		if area > uint64(len(values)-cursor-2) {
			break
		}
		if area > bestArea {
			bestAt, bestArea = cursor, area
		}
		cursor += 2 + int(area)
	}

	if bestAt < 0 {
		return RawIcon{}, false
	}

	w, h := values[bestAt], values[bestAt+1]
	argb := values[bestAt+2 : bestAt+2+int(bestArea)]
	pixels := make([]byte, 0, len(argb)*4)
	for _, p := range argb {
		pixels = append(pixels,
			byte(p>>16), // red
			byte(p>>8),  // green
			byte(p),     // blue
			byte(p>>24), // alpha
		)
	}

	return RawIcon{Width: w, Height: h, Pixels: pixels}, true
}

// ReadEmbedded reads prop (normally _NET_WM_ICON) from win and returns the
// largest bitmap in it. A missing or mistyped property yields false.
func ReadEmbedded(r x11.PropertyReader, win xproto.Window, prop xproto.Atom) (RawIcon, bool) {
	values, err := r.ReadCardinals(win, prop)
	if err != nil {
		logger.WithComponent("icon").Debug().
			Err(err).
			Uint32("window", uint32(win)).
			Msg("No embedded icon")
		return RawIcon{}, false
	}
	return ParseEmbedded(values)
}

// Image exposes the bitmap as a non-premultiplied RGBA image.
func (ic RawIcon) Image() *image.NRGBA {
	pix := make([]byte, len(ic.Pixels))
	copy(pix, ic.Pixels)
	return &image.NRGBA{
		Pix:    pix,
		Stride: 4 * int(ic.Width),
		Rect:   image.Rect(0, 0, int(ic.Width), int(ic.Height)),
	}
}

// Scale resamples img to a size x size square.
func Scale(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes the bitmap as PNG, resampled to size when size > 0.
func (ic RawIcon) WritePNG(w io.Writer, size int) error {
	var img image.Image = ic.Image()
	if size > 0 && (uint32(size) != ic.Width || uint32(size) != ic.Height) {
		img = Scale(img, size)
	}
	return png.Encode(w, img)
}
