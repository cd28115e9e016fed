package orientation

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Rotation is a clockwise page rotation in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Rotations is the fixed evaluation order.
var Rotations = []Rotation{Rotate0, Rotate90, Rotate180, Rotate270}

func (r Rotation) String() string {
	return fmt.Sprintf("%d", int(r))
}

// Apply returns page rotated clockwise by r. Rotate0 returns page unchanged.
// imaging rotates counter-clockwise, so 90 and 270 are swapped.
func (r Rotation) Apply(page image.Image) image.Image {
	switch r {
	case Rotate90:
		return imaging.Rotate270(page)
	case Rotate180:
		return imaging.Rotate180(page)
	case Rotate270:
		return imaging.Rotate90(page)
	default:
		return page
	}
}
