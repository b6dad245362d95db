// MLED
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MLED.
//
// MLED is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MLED is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MLED.  If not, see <http://www.gnu.org/licenses/>.

// Package tui is the terminal control panel for a sign. Widgets are enabled
// and disabled from the terminal's affordances, so the panel never offers
// an action the active feature would refuse.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/mled/pkg/config"
	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/transport"
	"github.com/ZaparooProject/mled/pkg/validation"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const refreshInterval = 250 * time.Millisecond

const msgLoopStopped = "Display loop stopped."

var speedNames = []string{"Static", "Slow", "Medium", "Fast"}

// Controller runs work on the goroutine that owns the terminal.
type Controller interface {
	Post(fn func()) bool
}

// Connector opens and closes the serial link.
type Connector interface {
	Connect(path string) error
	Disconnect() error
	Ports() ([]transport.PortInfo, error)
	Port() string
}

// Panel is the interactive control surface. Widget state is only touched
// on the tview goroutine; terminal calls are posted to the controller.
type Panel struct {
	ctrl  Controller
	link  Connector
	term  *display.Terminal
	app   atomic.Pointer[tview.Application]

	// dispatch replaces the tview queue when set
	dispatch func(func())

	root       *tview.Flex
	portForm   *tview.Form
	port       *tview.InputField
	found      *tview.DropDown
	connect    *tview.Button
	disconnect *tview.Button
	textForm   *tview.Form
	setForm    *tview.Form
	timerForm  *tview.Form
	text       *tview.InputField
	countdown  *tview.InputField
	finishText *tview.InputField
	finishHold *tview.InputField
	line       *tview.DropDown
	brightness *tview.DropDown
	textColor  *tview.DropDown
	speed      *tview.DropDown
	upColor    *tview.DropDown
	downColor  *tview.DropDown
	rainbow    *tview.Checkbox
	flash      *tview.Checkbox
	send       *tview.Button
	clear      *tview.Button
	upStart    *tview.Button
	upStop     *tview.Button
	downStart  *tview.Button
	downStop   *tview.Button
	status     *tview.TextView
	notice     *tview.TextView
	quit       func()
	setFocus   func(tview.Primitive)

	ports    []transport.PortInfo
	snap     display.Snapshot
	applying bool
}

// NewPanel builds the panel widgets. Pass Listener to the terminal, then
// Bind the terminal and Run.
func NewPanel(ctrl Controller, link Connector) *Panel {
	p := &Panel{
		ctrl:     ctrl,
		link:     link,
		quit:     func() {},
		setFocus: func(tview.Primitive) {},
	}
	p.build()
	return p
}

func numberOptions(from, to int) []string {
	opts := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		opts = append(opts, strconv.Itoa(i))
	}
	return opts
}

func addButton(f *tview.Form, label string, fn func()) *tview.Button {
	f.AddButton(label, fn)
	return f.GetButton(f.GetButtonCount() - 1)
}

func (p *Panel) build() {
	p.port = tview.NewInputField().
		SetLabel("Port ").
		SetText(p.link.Port())
	p.found = tview.NewDropDown().SetLabel("Found ").
		SetOptions([]string{"(scan)"}, p.pickPort)
	p.portForm = tview.NewForm().
		SetHorizontal(true).
		AddFormItem(p.port).
		AddFormItem(p.found)
	p.connect = addButton(p.portForm, "Connect", p.connectPort)
	p.disconnect = addButton(p.portForm, "Disconnect", p.disconnectPort)
	addButton(p.portForm, "Scan", p.scanPorts)
	p.portForm.SetBorder(true).SetTitle(" Sign ")

	p.text = tview.NewInputField().
		SetLabel("Text ").
		SetAcceptanceFunc(p.acceptText)
	p.text.SetChangedFunc(func(text string) {
		p.updateBudget(text)
	})
	p.text.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			p.sendText()
		}
	})

	p.textForm = tview.NewForm().AddFormItem(p.text)
	p.send = addButton(p.textForm, "Send", p.sendText)
	p.clear = addButton(p.textForm, "Clear", p.clearLine)
	p.textForm.SetBorder(true).SetTitle(" Text ")

	p.line = tview.NewDropDown().SetLabel("Line ").
		SetOptions(numberOptions(1, protocol.MaxLine), func(_ string, i int) {
			p.updateSettings(func(s *display.Settings) { s.Line = protocol.Line(i + 1) })
		})
	p.brightness = tview.NewDropDown().SetLabel("Brightness ").
		SetOptions(numberOptions(1, protocol.MaxBrightness), func(_ string, i int) {
			p.updateSettings(func(s *display.Settings) { s.Brightness = protocol.Brightness(i + 1) })
		})
	p.textColor = tview.NewDropDown().SetLabel("Colour ").
		SetOptions(protocol.ColorNames(), func(_ string, i int) {
			p.updateSettings(func(s *display.Settings) { s.TextColor = protocol.Color(i) })
		})
	p.speed = tview.NewDropDown().SetLabel("Scroll ").
		SetOptions(speedNames, func(_ string, i int) {
			if p.applying {
				return
			}
			if i == display.SpeedStatic && !p.snap.Affordances.StaticSpeed {
				p.showNotice(display.NoticeInfo, "Rainbow text always scrolls.")
			}
			p.updateSettings(func(s *display.Settings) { s.ScrollSpeed = i })
		})
	p.rainbow = tview.NewCheckbox().SetLabel("Rainbow ").
		SetChangedFunc(func(on bool) {
			p.updateSettings(func(s *display.Settings) { s.Rainbow = on })
		})

	p.setForm = tview.NewForm().
		AddFormItem(p.line).
		AddFormItem(p.brightness).
		AddFormItem(p.textColor).
		AddFormItem(p.speed).
		AddFormItem(p.rainbow)
	p.setForm.SetBorder(true).SetTitle(" Display ")

	p.upColor = tview.NewDropDown().SetLabel("Count up colour ").
		SetOptions(protocol.ColorNames(), func(_ string, i int) {
			p.updateSettings(func(s *display.Settings) { s.UpColor = protocol.Color(i) })
		})
	p.downColor = tview.NewDropDown().SetLabel("Countdown colour ").
		SetOptions(protocol.ColorNames(), func(_ string, i int) {
			p.updateSettings(func(s *display.Settings) { s.DownColor = protocol.Color(i) })
		})
	p.countdown = tview.NewInputField().
		SetLabel("Countdown (MM:SS) ").
		SetFieldWidth(6).
		SetAcceptanceFunc(func(text string, _ rune) bool {
			return len(text) <= 5 && strings.Trim(text, "0123456789:") == ""
		})
	p.finishText = tview.NewInputField().
		SetLabel("Finish message ").
		SetAcceptanceFunc(tview.InputFieldMaxLength(protocol.MaxFinishText))
	p.finishText.SetChangedFunc(func(text string) {
		p.updateSettings(func(s *display.Settings) { s.FinishText = text })
	})
	p.finishHold = tview.NewInputField().
		SetLabel("Hold (s) ").
		SetFieldWidth(4).
		SetAcceptanceFunc(tview.InputFieldInteger)
	p.finishHold.SetDoneFunc(func(tcell.Key) {
		p.setFinishHold(p.finishHold.GetText())
	})
	p.flash = tview.NewCheckbox().SetLabel("Flash finish ").
		SetChangedFunc(func(on bool) {
			p.updateSettings(func(s *display.Settings) { s.FinishFlash = on })
		})

	p.timerForm = tview.NewForm().
		AddFormItem(p.upColor).
		AddFormItem(p.countdown).
		AddFormItem(p.downColor).
		AddFormItem(p.finishText).
		AddFormItem(p.finishHold).
		AddFormItem(p.flash)
	p.upStart = addButton(p.timerForm, "Count up", p.startCountUp)
	p.upStop = addButton(p.timerForm, "Stop up", p.stopTimer)
	p.downStart = addButton(p.timerForm, "Count down", p.startCountDown)
	p.downStop = addButton(p.timerForm, "Stop down", p.stopTimer)
	p.timerForm.SetBorder(true).SetTitle(" Timers ")

	p.status = tview.NewTextView().SetDynamicColors(true)
	p.notice = tview.NewTextView().SetDynamicColors(true)

	forms := []*tview.Form{p.portForm, p.textForm, p.setForm, p.timerForm}
	for i, f := range forms {
		next := forms[(i+1)%len(forms)]
		prev := forms[(i-1+len(forms))%len(forms)]
		f.SetFinishedFunc(func(key tcell.Key) {
			if key == tcell.KeyBacktab {
				p.focus(prev)
				return
			}
			p.focus(next)
		})
		f.SetCancelFunc(func() {
			p.quit()
		})
	}

	cols := tview.NewFlex().
		AddItem(p.setForm, 0, 1, false).
		AddItem(p.timerForm, 0, 1, false)

	p.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.portForm, 5, 0, false).
		AddItem(p.textForm, 9, 0, true).
		AddItem(cols, 0, 1, false).
		AddItem(p.status, 1, 0, false).
		AddItem(p.notice, 1, 0, false)
	p.root.SetBorder(true).
		SetTitle(" MLED v" + config.AppVersion + " ").
		SetTitleAlign(tview.AlignCenter)
}

// Listener returns the display listener that feeds the panel.
func (p *Panel) Listener() display.Listener {
	return panelListener{p: p}
}

type panelListener struct {
	p *Panel
}

func (l panelListener) Notice(n display.Notice) {
	l.p.queue(func() {
		l.p.showNotice(n.Level, n.Message)
	})
}

func (l panelListener) ModeChanged(display.Mode) {
	l.p.queue(l.p.refresh)
}

// Bind attaches the terminal the panel controls.
func (p *Panel) Bind(term *display.Terminal) {
	p.term = term
}

// Root is the panel's top-level primitive.
func (p *Panel) Root() tview.Primitive {
	return p.root
}

// Run shows the panel until the user quits or ctx is done.
func (p *Panel) Run(ctx context.Context) error {
	app := tview.NewApplication()
	ApplyTheme(CurrentTheme())

	p.setFocus = func(pr tview.Primitive) {
		app.SetFocus(pr)
	}
	p.quit = app.Stop

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				app.Stop()
				return
			case <-ticker.C:
				p.refresh()
			}
		}
	}()

	p.app.Store(app)
	defer p.app.Store(nil)
	p.refresh()

	app.SetRoot(p.root, true).SetFocus(p.textForm).EnableMouse(true)
	if err := app.Run(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}

// queue runs fn on the tview goroutine. Updates while the panel is not
// running are dropped; Run applies a fresh snapshot.
func (p *Panel) queue(fn func()) {
	if p.dispatch != nil {
		p.dispatch(fn)
		return
	}
	if app := p.app.Load(); app != nil {
		app.QueueUpdateDraw(fn)
	}
}

func (p *Panel) focus(pr tview.Primitive) {
	p.setFocus(pr)
}

// run posts an action and redraws from the resulting snapshot. Terminal
// actions report their own failures as notices.
func (p *Panel) run(fn func() error) {
	p.post(func() error {
		if err := fn(); err != nil {
			log.Debug().Err(err).Msg("panel action refused")
		}
		return nil
	})
}

// post runs fn on the controller, shows its error if any and applies the
// resulting snapshot.
func (p *Panel) post(fn func() error) {
	ok := p.ctrl.Post(func() {
		err := fn()
		snap := p.term.Snapshot()
		p.queue(func() {
			p.apply(snap)
			if err != nil {
				p.showNotice(display.NoticeWarn, err.Error())
			}
		})
	})
	if !ok {
		p.queue(func() {
			p.showNotice(display.NoticeError, msgLoopStopped)
		})
	}
}

func (p *Panel) refresh() {
	p.post(func() error { return nil })
}

func (p *Panel) updateSettings(fn func(*display.Settings)) {
	if p.applying {
		return
	}
	p.post(func() error {
		return p.term.UpdateSettings(fn)
	})
}

func (p *Panel) acceptText(text string, _ rune) bool {
	return protocol.Len(text) <= protocol.MaxTextLen(p.snap.Settings.Rainbow)
}

func (p *Panel) updateBudget(text string) {
	left := protocol.MaxTextLen(p.snap.Settings.Rainbow) - protocol.Len(text)
	p.text.SetLabel(fmt.Sprintf("Text (%d left) ", max(0, left)))
}

func (p *Panel) connectPort() {
	path := strings.TrimSpace(p.port.GetText())
	if path == "" {
		p.showNotice(display.NoticeWarn, "Enter or scan for a serial port.")
		return
	}
	if err := p.link.Connect(path); err != nil {
		p.showNotice(display.NoticeError, "Could not open "+path+": "+err.Error())
		return
	}
	p.showNotice(display.NoticeInfo, "Connected to "+path+".")
	p.refresh()
}

func (p *Panel) disconnectPort() {
	if err := p.link.Disconnect(); err != nil {
		p.showNotice(display.NoticeError, "Could not close port: "+err.Error())
	}
	p.refresh()
}

func (p *Panel) scanPorts() {
	ports, err := p.link.Ports()
	if err != nil {
		p.showNotice(display.NoticeError, "Port scan failed: "+err.Error())
		return
	}
	p.ports = ports
	if len(ports) == 0 {
		p.found.SetOptions([]string{"(none)"}, p.pickPort)
		p.showNotice(display.NoticeWarn, "No serial ports found.")
		return
	}

	labels := make([]string, len(ports))
	for i, port := range ports {
		labels[i] = port.Label()
	}
	p.found.SetOptions(labels, p.pickPort)
	p.found.SetCurrentOption(0)
	p.showNotice(display.NoticeInfo, fmt.Sprintf("Found %d serial ports.", len(ports)))
}

func (p *Panel) pickPort(_ string, i int) {
	if p.applying || i < 0 || i >= len(p.ports) {
		return
	}
	p.port.SetText(p.ports[i].Name)
}

func (p *Panel) sendText() {
	text := p.text.GetText()
	p.run(func() error {
		return p.term.SendText(text)
	})
}

func (p *Panel) clearLine() {
	p.run(func() error {
		p.term.Clear()
		return nil
	})
}

func (p *Panel) startCountUp() {
	p.run(p.term.StartCountUp)
}

func (p *Panel) stopTimer() {
	p.run(func() error {
		p.term.StopTimer()
		return nil
	})
}

// startCountDown keeps the entered duration as the new default and starts
// counting down from it.
func (p *Panel) startCountDown() {
	minutes, seconds, err := validation.ParseMMSS(p.countdown.GetText())
	if err != nil {
		p.showNotice(display.NoticeWarn, "Countdown must be MM:SS, for example 10:00.")
		return
	}
	p.run(func() error {
		if err := p.term.UpdateSettings(func(s *display.Settings) {
			s.DownMinutes, s.DownSeconds = minutes, seconds
		}); err != nil {
			return err
		}
		return p.term.StartCountDown()
	})
}

func (p *Panel) setFinishHold(text string) {
	hold, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || hold < display.MinFinishHold || hold > display.MaxFinishHold {
		p.showNotice(display.NoticeWarn, fmt.Sprintf(
			"Hold must be %d to %d seconds.", display.MinFinishHold, display.MaxFinishHold))
		return
	}
	p.updateSettings(func(s *display.Settings) { s.FinishHold = hold })
}

func (p *Panel) showNotice(level display.NoticeLevel, msg string) {
	theme := CurrentTheme()
	color := theme.TextColorName
	switch level {
	case display.NoticeWarn:
		color = theme.WarningColorName
	case display.NoticeError:
		color = theme.ErrorColorName
	case display.NoticeInfo:
	}
	p.notice.SetText("[" + color + "]" + tview.Escape(msg) + "[-]")
}

// apply mirrors a snapshot into the widgets without feeding the changes
// back to the terminal.
func (p *Panel) apply(snap display.Snapshot) {
	p.applying = true
	defer func() { p.applying = false }()
	p.snap = snap

	p.connect.SetDisabled(snap.Connected)
	p.disconnect.SetDisabled(!snap.Connected)

	aff := snap.Affordances
	p.send.SetDisabled(!aff.Send)
	p.text.SetDisabled(!aff.Send)
	p.clear.SetDisabled(!aff.Clear)
	p.speed.SetDisabled(!aff.Scroll)
	p.textColor.SetDisabled(!aff.TextColor)
	p.upStart.SetDisabled(!aff.CountUpStart)
	p.upStop.SetDisabled(!aff.CountUpStop)
	p.downStart.SetDisabled(!aff.CountDownStart)
	p.downStop.SetDisabled(!aff.CountDownStop)

	set := snap.Settings
	p.line.SetCurrentOption(int(set.Line) - 1)
	p.brightness.SetCurrentOption(int(set.Brightness) - 1)
	p.textColor.SetCurrentOption(int(set.TextColor))
	p.speed.SetCurrentOption(set.ScrollSpeed)
	p.upColor.SetCurrentOption(int(set.UpColor))
	p.downColor.SetCurrentOption(int(set.DownColor))
	p.rainbow.SetChecked(set.Rainbow)
	p.flash.SetChecked(set.FinishFlash)
	setIfChanged(p.countdown, fmt.Sprintf("%02d:%02d", set.DownMinutes, set.DownSeconds))
	setIfChanged(p.finishText, set.FinishText)
	setIfChanged(p.finishHold, strconv.Itoa(set.FinishHoldSeconds()))

	p.updateBudget(p.text.GetText())
	p.status.SetText(statusLine(snap))
}

// setIfChanged leaves a field alone when it already shows text so the
// cursor does not jump while the user types.
func setIfChanged(f *tview.InputField, text string) {
	if f.GetText() != text {
		f.SetText(text)
	}
}

func statusLine(snap display.Snapshot) string {
	link := "[red]disconnected[-]"
	if snap.Connected {
		link = "[green]connected[-]"
	}
	timer := snap.Timer.String()
	switch snap.Timer {
	case display.TimerUp:
		timer += " " + snap.Elapsed
	case display.TimerDown:
		timer += " " + snap.Remaining
	case display.TimerNone:
	}
	color := colorSwatch(snap.Settings.TextColor)
	if snap.Settings.Rainbow {
		color = "rainbow"
	}
	return fmt.Sprintf(
		"[::b]Mode:[::-] %s  [::b]Timer:[::-] %s  [::b]Sign:[::-] %s  [::b]Colour:[::-] %s",
		snap.Mode, timer, link, color,
	)
}
