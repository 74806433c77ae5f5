// Package view holds the pure rendering helpers of the dashboards: the camera status badge,
// the engagement colour and the face frame drawn on a snapshot once attendance is marked.
package view

import (
	"image"
	"image/color"
	"image/draw"

	"engage-track/internal/pkg/model/session_model"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGrey   = "grey"
)

var (
	frameColor = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	labelText  = color.White
)

const (
	frameInset     = 50
	frameThickness = 3
	labelWidth     = 200
	labelHeight    = 30
	labelTop       = 20
)

// Badge is the status indicator shown over the camera feed.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// StatusBadge returns the badge for a session. The zero Badge means nothing is shown.
func StatusBadge(s session_model.CaptureSession) Badge {
	switch {
	case !s.Active:
		return Badge{}
	case s.AttendanceMarked && s.RecognizedName == "":
		return Badge{Label: "Marked", Color: ColorGreen}
	case s.AttendanceMarked:
		return Badge{Label: "Marked: " + s.RecognizedName, Color: ColorGreen}
	case s.FaceDetected:
		return Badge{Label: "Face Detected", Color: ColorYellow}
	default:
		return Badge{Label: "Scanning", Color: ColorGrey}
	}
}

// EngagementColor maps an engagement score to the indicator colour.
func EngagementColor(score int) string {
	if score >= 80 {
		return ColorGreen
	}
	if score >= 60 {
		return ColorYellow
	}
	return ColorRed
}

// Annotate returns a copy of img with the recognition frame and the name label drawn on it.
func Annotate(img image.Image, name string) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	box := image.Rect(0, 0, w, h)
	if w > 2*frameInset && h > 2*frameInset {
		box = image.Rect(frameInset, frameInset, w-frameInset, h-frameInset)
	}
	strokeRect(out, box, frameThickness, frameColor)

	label := image.Rect(frameInset, labelTop, frameInset+labelWidth, labelTop+labelHeight).Intersect(out.Bounds())
	if label.Empty() {
		return out
	}
	draw.Draw(out, label, image.NewUniform(frameColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(labelText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(label.Min.X+10, label.Min.Y+20),
	}
	d.DrawString(name)

	return out
}

func strokeRect(dst draw.Image, r image.Rectangle, thickness int, c color.Color) {
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), u, image.Point{}, draw.Src)
	}
}
