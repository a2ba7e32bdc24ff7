package tmx

// GID is a raw tile-layer cell value: a document-wide tile id with the
// orientation flags stored in its top bits.
type GID uint32

const (
	FlipHorizontal GID = 0x80000000
	FlipVertical   GID = 0x40000000
	FlipDiagonal   GID = 0x20000000
	// RotateHex120 is only meaningful on hexagonal maps.
	RotateHex120 GID = 0x10000000

	flipMask = FlipHorizontal | FlipVertical | FlipDiagonal | RotateHex120
)

// Base strips the orientation flags.
func (g GID) Base() GID {
	return g &^ flipMask
}

// Flips returns only the orientation flags.
func (g GID) Flips() GID {
	return g & flipMask
}

func (g GID) HorizontalFlip() bool { return g&FlipHorizontal != 0 }
func (g GID) VerticalFlip() bool   { return g&FlipVertical != 0 }
func (g GID) DiagonalFlip() bool   { return g&FlipDiagonal != 0 }

// WithFlips replaces the orientation flags of g.
func (g GID) WithFlips(flips GID) GID {
	return g.Base() | flips&flipMask
}

// IsEmpty reports whether the cell references no tile.
func (g GID) IsEmpty() bool {
	return g.Base() == 0
}
