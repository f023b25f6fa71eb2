package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

// dashboard renders poller snapshots to a tcell terminal screen. The
// layout and event-loop shape follow the jeebie terminal backend: a
// persistent tcell.Screen, events delivered through ChannelEvents into a
// select loop, and a plain text panel layout rather than a TUI widget
// library.
type dashboard struct {
	screen tcell.Screen
	addr   string
}

func newDashboard(addr string) (*dashboard, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	return &dashboard{screen: screen, addr: addr}, nil
}

func (d *dashboard) Close() {
	d.screen.Fini()
}

// Run drives the dashboard until ctx is canceled or the user quits with
// q/Esc/Ctrl-C. It redraws on every snapshot and also on a 250ms tick.
func (d *dashboard) Run(ctx context.Context, snapshots <-chan snapshot) {
	events := make(chan tcell.Event, 16)
	go d.screen.ChannelEvents(events, ctx.Done())

	redraw := time.NewTicker(250 * time.Millisecond)
	defer redraw.Stop()

	var last snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snapshots:
			last = snap
			d.render(last)
		case <-redraw.C:
			d.render(last)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				d.screen.Sync()
			case *tcell.EventKey:
				if isQuit(ev) {
					return
				}
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return true
	}
	return ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')
}

func (d *dashboard) render(snap snapshot) {
	d.screen.Clear()
	width, height := d.screen.Size()

	title := fmt.Sprintf(" pipelinetop — %s ", d.addr)
	d.drawText(0, 0, width, title, tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true))

	y := 2
	if snap.Err != nil {
		d.drawText(0, y, width, fmt.Sprintf("poll error: %v", snap.Err), tcell.StyleDefault.Foreground(tcell.ColorRed))
		y += 2
	}

	d.drawText(0, y, width, fmt.Sprintf("zone: %-20s deadline: %-12s misses: %d", snap.Zone, snap.Deadline, snap.DeadlineMisses), tcell.StyleDefault)
	y++
	d.drawText(0, y, width, fmt.Sprintf("cpu headroom: %6.2f%%   periods observed: %d   avg period: %s", snap.CPUHeadroom, snap.PeriodCount, avgPeriod(snap)), tcell.StyleDefault)
	y += 2

	d.drawText(0, y, width, "registered module types:", tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true))
	y++
	if len(snap.ModuleTypes) == 0 {
		d.drawText(2, y, width, "(none yet)", tcell.StyleDefault.Foreground(tcell.ColorGray))
		y++
	}
	for _, t := range snap.ModuleTypes {
		d.drawText(2, y, width, t, tcell.StyleDefault)
		y++
	}
	y++

	d.drawText(0, y, width, "ramp activity:", tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true))
	y++
	if len(snap.Ramps) == 0 {
		d.drawText(2, y, width, "(no ramps reported)", tcell.StyleDefault.Foreground(tcell.ColorGray))
		y++
	}
	for _, r := range snap.Ramps {
		style := tcell.StyleDefault.Foreground(tcell.ColorGray)
		state := "idle"
		if r.Active {
			style = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
			state = "ramping"
		}
		d.drawText(2, y, width, fmt.Sprintf("%-20s %-16s %s", r.Module, r.Param, state), style)
		y++
	}

	helpY := height - 1
	d.drawText(0, helpY, width, " q/Esc/Ctrl-C: quit ", tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkBlue))

	d.screen.Show()
}

func avgPeriod(snap snapshot) time.Duration {
	if snap.PeriodCount == 0 {
		return 0
	}
	return time.Duration(snap.PeriodSumSecs / float64(snap.PeriodCount) * float64(time.Second))
}

func (d *dashboard) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= maxWidth {
			return
		}
		d.screen.SetContent(col, y, r, nil, style)
		col++
	}
}
