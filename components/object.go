package components

import (
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"

	"github.com/automoto/tmxworld/shared/gamemath"
)

// ObjectData mirrors a body into the resolv space of the level it stands on.
type ObjectData struct {
	*resolv.Object
}

var Object = donburi.NewComponentType[ObjectData]()

// BodyData is a body's center in pixels, its level index and its volume.
type BodyData struct {
	Name string
	X, Y float64
	Z    float64
	Box  gamemath.Box
}

var Body = donburi.NewComponentType[BodyData]()
