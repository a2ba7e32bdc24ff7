package core

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type GameLoop struct {
	world    *World
	tickRate int
	log      *zap.Logger

	mu       sync.Mutex
	running  bool
	ticks    uint64
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewGameLoop(world *World, tickRate int, log *zap.Logger) *GameLoop {
	if tickRate < 1 {
		tickRate = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GameLoop{
		world:    world,
		tickRate: tickRate,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Run ticks the world until Stop is called. It blocks.
func (g *GameLoop) Run() {
	g.setRunning(true)
	ticker := time.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	g.log.Info("game loop started", zap.Int("tickRate", g.tickRate))

	for {
		select {
		case <-g.stopChan:
			g.setRunning(false)
			g.log.Info("game loop stopped", zap.Uint64("ticks", g.Ticks()))
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

func (g *GameLoop) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *GameLoop) Ticks() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ticks
}

func (g *GameLoop) setRunning(v bool) {
	g.mu.Lock()
	g.running = v
	g.mu.Unlock()
}

func (g *GameLoop) tick() {
	g.world.Step()

	g.mu.Lock()
	g.ticks++
	g.mu.Unlock()
}
