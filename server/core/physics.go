package core

import (
	"github.com/yohamta/donburi"

	"github.com/automoto/tmxworld/components"
	"github.com/automoto/tmxworld/shared/gamemath"
)

// Step advances every body by its velocity, in SubSteps equal parts. Each
// sub-step decays speed by friction, clamps it, then resolves the move
// against the collision grid so bodies slide along walls.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	steps := w.opts.SubSteps
	frac := 1 / float64(steps)

	components.Physics.Each(w.ecs, func(entry *donburi.Entry) {
		p := components.Physics.Get(entry)
		b := components.Body.Get(entry)

		for i := 0; i < steps; i++ {
			w.stepBody(b, p, frac)
		}
		w.syncObject(entry, b)
	})
}

// stepBody performs one sub-step for one body.
func (w *World) stepBody(b *components.BodyData, p *components.PhysicsData, frac float64) {
	if p.MaxSpeed > 0 {
		p.SpeedX, p.SpeedY = gamemath.ClampVelocity(p.SpeedX, p.SpeedY, p.MaxSpeed)
	}
	if p.SpeedX == 0 && p.SpeedY == 0 {
		return
	}

	box := bodyBox(b)
	nx, ny := w.resolver.ResolveMovement(b.X, b.Y, b.Z, p.SpeedX*frac, p.SpeedY*frac, box)

	// A blocked axis loses its speed.
	if nx == b.X {
		p.SpeedX = 0
	}
	if ny == b.Y {
		p.SpeedY = 0
	}
	b.X, b.Y = nx, ny

	p.SpeedX = gamemath.ApplyFriction(p.SpeedX, p.Friction*frac)
	p.SpeedY = gamemath.ApplyFriction(p.SpeedY, p.Friction*frac)
}

func (w *World) syncObject(entry *donburi.Entry, b *components.BodyData) {
	obj := components.Object.Get(entry).Object
	if obj == nil {
		return
	}
	obj.X = b.X - obj.W/2
	obj.Y = b.Y - obj.H/2
	if obj.Space != nil {
		obj.Update()
	}
}
