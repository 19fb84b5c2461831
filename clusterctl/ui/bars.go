// Copyright 2026 The Gocluster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/gocluster/clusterctl/util"
	"github.com/gdamore/gocluster/rest"
)

// health selects the coloring of status lines and worker rows.
type health int

const (
	healthNormal health = iota
	healthGood
	healthWarn
	healthError
)

func healthOf(w *rest.WorkerInfo) health {
	switch util.Status(w) {
	case "online":
		return healthGood
	case "starting", "stopping":
		return healthWarn
	}
	return healthError
}

var (
	StyleNormal = tcell.StyleDefault.
			Foreground(tcell.ColorSilver).
			Background(tcell.ColorBlack)

	// row colors, by health
	rowStyles = [...]tcell.Style{
		healthNormal: StyleNormal,
		healthGood:   StyleNormal.Foreground(tcell.ColorGreen),
		healthWarn:   StyleNormal.Foreground(tcell.ColorYellow),
		healthError:  StyleNormal.Foreground(tcell.ColorMaroon),
	}

	barStyle = tcell.StyleDefault.
			Foreground(tcell.ColorBlack).
			Background(tcell.ColorSilver)
	keyStyle = barStyle.Foreground(tcell.ColorBlue).Bold(true)

	// status bar colors, by health
	statusStyles = [...]tcell.Style{
		healthNormal: barStyle,
		healthGood: tcell.StyleDefault.
			Foreground(tcell.ColorWhite).
			Background(tcell.ColorGreen).Bold(true),
		healthWarn: tcell.StyleDefault.
			Foreground(tcell.ColorBlack).
			Background(tcell.ColorYellow),
		healthError: tcell.StyleDefault.
			Foreground(tcell.ColorWhite).
			Background(tcell.ColorMaroon).Bold(true),
	}
)

func newBar() *views.SimpleStyledTextBar {
	b := views.NewSimpleStyledTextBar()
	b.SetStyle(barStyle)
	b.RegisterLeftStyle('N', barStyle)
	b.RegisterLeftStyle('A', keyStyle)
	b.RegisterCenterStyle('N', barStyle)
	b.RegisterRightStyle('N', barStyle)
	return b
}

// StatusBar is a text bar whose color follows the health of what the
// panel shows.
type StatusBar struct {
	text string
	views.SimpleStyledTextBar
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.Init()
	sb.Set("", healthNormal)
	return sb
}

func (sb *StatusBar) Set(text string, h health) {
	st := statusStyles[h]
	sb.text = text
	sb.SetStyle(st)
	sb.RegisterLeftStyle('N', st)
	sb.SetLeft(text)
}

// markup turns "[K] Word" entries into text bar markup that highlights
// the bracketed key.
func markup(words []string) string {
	b := &strings.Builder{}
	for i, w := range words {
		if i != 0 && len(w) != 0 {
			b.WriteRune(' ')
		}
		esc := false
		for _, r := range w {
			switch {
			case r == '%':
				b.WriteString("%%")
			case r == '[' && !esc:
				esc = true
				b.WriteString("[%A")
			case r == ']' && esc:
				esc = false
				b.WriteString("%N]")
			default:
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
