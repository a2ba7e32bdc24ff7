package core

import (
	"fmt"
	"math"

	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/automoto/tmxworld/components"
	"github.com/automoto/tmxworld/shared/gamemath"
	"github.com/automoto/tmxworld/tags"
)

// SpawnBody creates a body centered on (x, y) at level index z. It fails with
// ErrBlocked when the default box does not fit there.
func (w *World) SpawnBody(name string, x, y, z float64) (donburi.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawn(name, x, y, z)
}

// SpawnAt creates a body at the map's spawn point with the given index in
// left-to-right order.
func (w *World) SpawnAt(name string, index int) (donburi.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	spawns := w.level.Spawns
	if index < 0 || index >= len(spawns) {
		return 0, fmt.Errorf("spawn point %d of %d", index, len(spawns))
	}
	sp := spawns[index]
	z := float64(sp.Level + w.level.Grid.LevelOffset)
	return w.spawn(name, sp.X, sp.Y, z)
}

func (w *World) spawn(name string, x, y, z float64) (donburi.Entity, error) {
	box := w.opts.Box
	if !w.resolver.CanOccupy(x, y, z, box) {
		return 0, fmt.Errorf("spawn %q at (%.1f, %.1f, %.1f): %w", name, x, y, z, ErrBlocked)
	}

	entity := w.ecs.Create(tags.Body, components.Body, components.Physics, components.Object)
	entry := w.ecs.Entry(entity)
	components.Body.SetValue(entry, components.BodyData{Name: name, X: x, Y: y, Z: z, Box: box})
	components.Physics.SetValue(entry, components.PhysicsData{
		Friction: w.opts.Friction,
		MaxSpeed: w.opts.MaxSpeed,
	})

	obj := w.newBodyObject(components.Body.Get(entry))
	components.Object.SetValue(entry, components.ObjectData{Object: obj})
	if s := w.spaceAt(z); s != nil {
		s.Space.Add(obj)
	}

	w.log.Debug("body spawned", zap.String("name", name),
		zap.Float64("x", x), zap.Float64("y", y), zap.Float64("z", z))
	return entity, nil
}

func (w *World) newBodyObject(b *components.BodyData) *resolv.Object {
	bw := b.Box.Width * w.resolver.TileWidth
	bh := b.Box.Depth * w.resolver.TileHeight
	obj := resolv.NewObject(b.X-bw/2, b.Y-bh/2, bw, bh, tags.ResolvBody)
	obj.SetShape(resolv.NewRectangle(0, 0, bw, bh))
	obj.Data = b.Name
	return obj
}

func (w *World) spaceAt(z float64) *ServerLevel {
	l := int(math.Floor(z))
	if l < 0 || l >= len(w.spaces) {
		return nil
	}
	return w.spaces[l]
}

// attachBodies puts every body's object into the space of its level. Spaces
// are rebuilt on each edit, so this runs after every refresh.
func (w *World) attachBodies() {
	tags.Body.Each(w.ecs, func(entry *donburi.Entry) {
		obj := components.Object.Get(entry).Object
		if obj == nil {
			return
		}
		if obj.Space != nil {
			obj.Space.Remove(obj)
		}
		if s := w.spaceAt(components.Body.Get(entry).Z); s != nil {
			s.Space.Add(obj)
		}
	})
}

func (w *World) entry(e donburi.Entity) (*donburi.Entry, error) {
	if !w.ecs.Valid(e) {
		return nil, ErrNoBody
	}
	entry := w.ecs.Entry(e)
	if !entry.HasComponent(tags.Body) {
		return nil, ErrNoBody
	}
	return entry, nil
}

// SetVelocity sets a body's speed in pixels per step.
func (w *World) SetVelocity(e donburi.Entity, vx, vy float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, err := w.entry(e)
	if err != nil {
		return err
	}
	p := components.Physics.Get(entry)
	p.SpeedX, p.SpeedY = vx, vy
	return nil
}

// BodyPosition returns a body's center and level.
func (w *World) BodyPosition(e donburi.Entity) (x, y, z float64, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	entry, err := w.entry(e)
	if err != nil {
		return 0, 0, 0, false
	}
	b := components.Body.Get(entry)
	return b.X, b.Y, b.Z, true
}

// ChangeBodyLevel moves a body to level newZ if it fits there.
func (w *World) ChangeBodyLevel(e donburi.Entity, newZ float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, err := w.entry(e)
	if err != nil {
		return err
	}
	b := components.Body.Get(entry)
	if !w.resolver.CanChangeLevel(b.X, b.Y, newZ, b.Box) {
		return fmt.Errorf("body %q to level %.1f: %w", b.Name, newZ, ErrBlocked)
	}
	b.Z = newZ

	obj := components.Object.Get(entry).Object
	if obj.Space != nil {
		obj.Space.Remove(obj)
	}
	if s := w.spaceAt(newZ); s != nil {
		s.Space.Add(obj)
	}
	return nil
}

func (w *World) RemoveBody(e donburi.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, err := w.entry(e)
	if err != nil {
		return
	}
	if obj := components.Object.Get(entry).Object; obj != nil && obj.Space != nil {
		obj.Space.Remove(obj)
	}
	w.ecs.Remove(e)
}

func (w *World) BodyCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n := 0
	tags.Body.Each(w.ecs, func(*donburi.Entry) { n++ })
	return n
}

// bodyBox is the box a body moves with.
func bodyBox(b *components.BodyData) gamemath.Box {
	if b.Box == (gamemath.Box{}) {
		return gamemath.DefaultBox
	}
	return b.Box
}
