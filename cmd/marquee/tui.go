package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/chao921125/scroll-seamless-sub000/config"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/engine"
	"github.com/chao921125/scroll-seamless-sub000/event"
	"github.com/chao921125/scroll-seamless-sub000/termnode"
)

const statusRows = 1

// runTUI owns the terminal: it builds the viewport and factory, feeds
// input to the engine, and redraws on the engine's frame cadence. The
// returned stats snapshot is taken at quit, for printing once the
// terminal is restored.
func runTUI(cfg config.Config, logger *charmlog.Logger) (map[string]any, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	w, h := screen.Size()
	view := termnode.NewViewport(screen, 0, 0, w, h-statusRows)
	factory, err := termnode.NewFactory(view, cfg.Direction)
	if err != nil {
		return nil, err
	}

	cfg.OnEvent = func(ev event.Event) {
		switch ev.Type {
		case event.Warning:
			logger.Warn("engine event", "type", ev.Type.String(), "payload", ev.Payload)
		case event.Error:
			logger.Error("engine event", "type", ev.Type.String(), "payload", ev.Payload)
		default:
			logger.Debug("engine event", "type", ev.Type.String(), "frame", ev.Frame)
		}
	}

	eng, err := engine.New(cfg, view, factory, engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer eng.Destroy()

	if err := eng.Start(); err != nil {
		return nil, err
	}

	inputs := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(inputs)
				return
			}
			select {
			case inputs <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(cfg.FrameInterval)
	defer ticker.Stop()

	hovering := false
	for {
		select {
		case <-ticker.C:
			factory.Draw()
			drawStatus(screen, eng, hovering)
			screen.Show()

		case ev, ok := <-inputs:
			if !ok {
				return eng.Stats(), nil
			}
			done, err := handleInput(ev, eng, factory, &hovering)
			if err != nil {
				logger.Error("input handling failed", "err", err)
			}
			if done {
				close(quit)
				return eng.Stats(), nil
			}
		}
	}
}

// handleInput maps one terminal event to an engine operation. It reports
// done=true when the user asked to quit.
func handleInput(ev tcell.Event, eng *engine.Engine, factory *termnode.Factory, hovering *bool) (bool, error) {
	switch tev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case tev.Key() == tcell.KeyEscape || tev.Key() == tcell.KeyCtrlC || tev.Rune() == 'q':
			return true, nil
		case tev.Rune() == ' ':
			if eng.State() == engine.StatePaused {
				return false, eng.Resume()
			}
			return false, eng.Pause()
		case tev.Rune() == 'e':
			*hovering = true
			eng.HoverEnter()
		case tev.Rune() == 'x':
			*hovering = false
			eng.HoverLeave()
		case tev.Rune() == '+', tev.Rune() == '=':
			return false, adjustStep(eng, 1)
		case tev.Rune() == '-':
			return false, adjustStep(eng, -1)
		case tev.Key() == tcell.KeyLeft, tev.Rune() == 'h':
			return false, steer(eng, factory, direction.Left)
		case tev.Key() == tcell.KeyRight, tev.Rune() == 'l':
			return false, steer(eng, factory, direction.Right)
		case tev.Key() == tcell.KeyUp, tev.Rune() == 'k':
			return false, steer(eng, factory, direction.Up)
		case tev.Key() == tcell.KeyDown, tev.Rune() == 'j':
			return false, steer(eng, factory, direction.Down)
		}
	case *tcell.EventMouse:
		mask := tev.Buttons()
		if mask&tcell.WheelUp != 0 {
			return false, eng.Nudge(-3)
		}
		if mask&tcell.WheelDown != 0 {
			return false, eng.Nudge(3)
		}
	}
	return false, nil
}

func adjustStep(eng *engine.Engine, delta float64) error {
	step := eng.Config().Step + delta
	if step < 1 {
		step = 1
	}
	return eng.SetOptions(config.Update{Step: &step})
}

// steer changes scroll direction, retargeting the factory first so an
// axis change rebuilds blocks on the right orientation.
func steer(eng *engine.Engine, factory *termnode.Factory, dir direction.Direction) error {
	if err := factory.SetAxis(dir); err != nil {
		return err
	}
	if err := eng.SetOptions(config.Update{Direction: &dir}); err != nil {
		// Point the factory back at the direction the engine kept.
		factory.SetAxis(eng.Config().Direction)
		return err
	}
	return nil
}

// drawStatus paints the bottom status line from live engine state.
func drawStatus(screen tcell.Screen, eng *engine.Engine, hovering bool) {
	w, h := screen.Size()
	stats := eng.Stats()
	fps, _ := stats["scheduler.fps"].(float64)

	line := fmt.Sprintf(" %s | %s | pos %.1f | fps %.0f | step %.0f",
		eng.State(), eng.Config().Direction, eng.GetPosition(), fps, eng.Config().Step)
	if hovering {
		line += " | hover"
	}
	line += " | space pause, arrows steer, +/- speed, q quit"

	paintLine(screen, h-1, w, line, tcell.StyleDefault.Reverse(true))
}

// paintLine writes one row of text padded to width. Indexing runes, not
// bytes, keeps multi-byte characters in direction names and labels intact.
func paintLine(screen tcell.Screen, row, width int, line string, style tcell.Style) {
	runes := []rune(line)
	for col := 0; col < width; col++ {
		r := ' '
		if col < len(runes) {
			r = runes[col]
		}
		screen.SetContent(col, row, r, nil, style)
	}
}

// printSummary writes the exit report after the screen is restored.
func printSummary(stats map[string]any) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	key := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fmt.Println(title.Render("marquee session"))
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasPrefix(name, "engine.") || strings.HasPrefix(name, "scheduler.") {
			fmt.Printf("  %s %v\n", key.Render(name), stats[name])
		}
	}
}
