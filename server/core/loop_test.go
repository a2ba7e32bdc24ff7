package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGameLoopStepsWorld(t *testing.T) {
	w := loadYard(t, still())
	e, err := w.SpawnBody("p1", 48, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = w.SetVelocity(e, 0, 1)

	loop := NewGameLoop(w, 200, nil)
	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	waitFor(t, "three ticks", func() bool { return loop.Ticks() >= 3 })
	if !loop.Running() {
		t.Error("loop should report running")
	}
	loop.Stop()
	loop.Stop()
	<-done

	if loop.Running() {
		t.Error("loop still running after Stop")
	}
	if _, y, _, _ := w.BodyPosition(e); y < 19 {
		t.Errorf("body y = %v after %d ticks", y, loop.Ticks())
	}
}

func TestIsLevelFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"levels/yard.tmx", true},
		{"tilesets/walls.TSX", true},
		{"flags.yaml", true},
		{"flags.yml", true},
		{"walls.png", false},
		{"yard.tmx~", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsLevelFile(tt.path); got != tt.want {
				t.Errorf("IsLevelFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	wt, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "walls.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "yard.tmx")
	if err := os.WriteFile(target, []byte(yardTMX), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-wt.Events:
		if name != target {
			t.Errorf("event for %q, want %q", name, target)
		}
	case err := <-wt.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for the map file")
	}

	if err := wt.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	_ = wt.Close()
	for range wt.Events {
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("watching a missing directory should fail")
	}
}

func TestWatcherAdd(t *testing.T) {
	mapDir, tileDir := t.TempDir(), t.TempDir()
	wt, err := NewWatcher(mapDir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer wt.Close()

	if err := wt.Add(tileDir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := wt.Add(tileDir); err != nil {
		t.Errorf("second Add: %v", err)
	}

	target := filepath.Join(tileDir, "walls.tsx")
	if err := os.WriteFile(target, []byte("<tileset/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case name := <-wt.Events:
		if name != target {
			t.Errorf("event for %q, want %q", name, target)
		}
	case err := <-wt.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for the added directory")
	}
}
