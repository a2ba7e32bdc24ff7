package components

import (
	"github.com/yohamta/donburi"
)

// PhysicsData is a body's velocity in pixels per tick and how it decays.
type PhysicsData struct {
	SpeedX   float64
	SpeedY   float64
	Friction float64
	MaxSpeed float64
}

var Physics = donburi.NewComponentType[PhysicsData]()
