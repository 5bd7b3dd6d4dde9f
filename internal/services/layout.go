package services

import (
	"math"

	"github.com/acmclub/certhub/internal/types"
)

// Placeholder positions and font sizes are authored in the template editor
// against a preview roughly this tall; scaling by actual height keeps the
// rendered text visually consistent at any template resolution.
const referenceHeight = 500.0

// placement is a placeholder resolved against a concrete image: absolute
// pixel coordinates, absolute font size and a horizontal anchor fraction
// (0 left, 0.5 center, 1 right). Text is always vertically centered on Y.
type placement struct {
	X        float64
	Y        float64
	FontSize float64
	AnchorX  float64
}

func placePlaceholder(spec types.PlaceholderSpec, imageWidth, imageHeight int) placement {
	w := float64(imageWidth)
	h := float64(imageHeight)

	scale := h / referenceHeight
	size := math.Round(spec.FontSize * scale)
	if size < 1 {
		size = 1
	}

	return placement{
		X:        spec.X / 100 * w,
		Y:        spec.Y / 100 * h,
		FontSize: size,
		AnchorX:  alignmentAnchor(spec.Alignment),
	}
}

func alignmentAnchor(alignment string) float64 {
	switch alignment {
	case "left":
		return 0
	case "right":
		return 1
	default:
		return 0.5
	}
}
