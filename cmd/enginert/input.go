package main

import (
	"bufio"
	"io"

	"github.com/enginert/runtime/internal/core/event"
	"github.com/enginert/runtime/internal/data"
	gonet "github.com/enginert/runtime/internal/net"
	"go.uber.org/zap"
)

// readInput feeds lines read from r through the input protocol parser. The
// channels are shared with the remote input server and stay open at EOF.
func readInput(r io.Reader, keyMap *data.KeyMapTable, keys chan<- event.KeyEvent, mouse chan<- event.MouseEvent, log *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		cmd, err := gonet.ParseCommand(sc.Text(), keyMap.Translate)
		if err != nil {
			log.Warn("stdin input", zap.Error(err))
			continue
		}
		if cmd.Quit {
			return
		}
		for _, k := range cmd.Keys {
			keys <- k
		}
		for _, m := range cmd.Mouse {
			mouse <- m
		}
	}
}
