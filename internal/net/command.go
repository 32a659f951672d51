package net

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/enginert/runtime/internal/core/event"
)

// Command is one parsed input line.
type Command struct {
	Keys  []event.KeyEvent
	Mouse []event.MouseEvent
	Quit  bool
}

// ParseCommand parses one line of the input protocol:
//
//	key NAME [down|up]          one key event; without a state, press then release
//	mouse X Y [BUTTON] [down|up] one mouse event; button 0 pressed by default
//	quit                        close the session
//	WORD...                     each word pressed then released
//
// Key names pass through translate when it is non-nil.
func ParseCommand(line string, translate func(string) string) (Command, error) {
	var cmd Command
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return cmd, nil
	}
	tr := func(k string) string {
		if translate == nil {
			return k
		}
		return translate(k)
	}

	switch strings.ToLower(fields[0]) {
	case "quit":
		if len(fields) != 1 {
			return cmd, fmt.Errorf("quit takes no arguments")
		}
		cmd.Quit = true
	case "key":
		if len(fields) < 2 || len(fields) > 3 {
			return cmd, fmt.Errorf("usage: key NAME [down|up]")
		}
		key := tr(fields[1])
		if len(fields) == 2 {
			cmd.Keys = pressRelease(key)
			break
		}
		pressed, err := parseState(fields[2])
		if err != nil {
			return cmd, err
		}
		cmd.Keys = []event.KeyEvent{{Key: key, Pressed: pressed}}
	case "mouse":
		ev, err := parseMouse(fields[1:])
		if err != nil {
			return cmd, err
		}
		cmd.Mouse = []event.MouseEvent{ev}
	default:
		for _, w := range fields {
			cmd.Keys = append(cmd.Keys, pressRelease(tr(w))...)
		}
	}
	return cmd, nil
}

func pressRelease(key string) []event.KeyEvent {
	return []event.KeyEvent{{Key: key, Pressed: true}, {Key: key, Pressed: false}}
}

func parseState(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "down":
		return true, nil
	case "up":
		return false, nil
	default:
		return false, fmt.Errorf("state %q: want down or up", s)
	}
}

func parseMouse(args []string) (event.MouseEvent, error) {
	ev := event.MouseEvent{Pressed: true}
	if len(args) < 2 || len(args) > 4 {
		return ev, fmt.Errorf("usage: mouse X Y [BUTTON] [down|up]")
	}
	var err error
	if ev.X, err = strconv.ParseFloat(args[0], 64); err != nil {
		return ev, fmt.Errorf("mouse x: %w", err)
	}
	if ev.Y, err = strconv.ParseFloat(args[1], 64); err != nil {
		return ev, fmt.Errorf("mouse y: %w", err)
	}
	rest := args[2:]
	if len(rest) > 0 {
		if b, err := strconv.Atoi(rest[0]); err == nil {
			ev.Button = b
			rest = rest[1:]
		}
	}
	if len(rest) == 1 {
		if ev.Pressed, err = parseState(rest[0]); err != nil {
			return ev, err
		}
	} else if len(rest) > 1 {
		return ev, fmt.Errorf("usage: mouse X Y [BUTTON] [down|up]")
	}
	return ev, nil
}
