// Package render draws ticket images: the QR code of a ticket code pasted
// onto the event's ticket template.
package render

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/cockroachdb/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// TicketRenderer composes QR codes onto a template image.
type TicketRenderer struct {
	template image.Image
	at       image.Point
	size     int
}

// NewTicketRenderer places a size×size QR code with its top-left corner at
// `at` (relative to the template's origin).  A nil template renders the bare
// QR code.
func NewTicketRenderer(template image.Image, at image.Point, size int) *TicketRenderer {
	return &TicketRenderer{template: template, at: at, size: size}
}

// LoadTemplate decodes a PNG or JPEG template from disk.
func LoadTemplate(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening template %s", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding template %s", path)
	}
	return img, nil
}

// Render returns the PNG encoding of the ticket image for code.
func (r *TicketRenderer) Render(code string) ([]byte, error) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding QR for %s", code)
	}
	// go-qrcode may return a larger image when size is below the minimum
	// for this code, so the real bounds are used below.
	qr := q.Image(r.size)

	var canvas *image.RGBA
	if r.template == nil {
		canvas = image.NewRGBA(qr.Bounds())
		draw.Draw(canvas, canvas.Bounds(), qr, qr.Bounds().Min, draw.Src)
	} else {
		b := r.template.Bounds()
		canvas = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(canvas, canvas.Bounds(), r.template, b.Min, draw.Src)
		dst := image.Rectangle{Min: r.at, Max: r.at.Add(qr.Bounds().Size())}
		if !dst.In(canvas.Bounds()) {
			return nil, errors.Newf("QR area %v does not fit template %v", dst, canvas.Bounds())
		}
		draw.Draw(canvas, dst, qr, qr.Bounds().Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, errors.Wrap(err, "encoding ticket PNG")
	}
	return buf.Bytes(), nil
}
