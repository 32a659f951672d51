package components

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"

	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/core/event"
	"github.com/enginert/runtime/internal/scripting"
	"go.uber.org/zap"
)

const ScriptType = "Script"

// Lua hook names. on_key receives (key, pressed).
const (
	luaStart      = "start"
	luaUpdate     = "update"
	luaDraw       = "draw"
	luaDeactivate = "deactivate"
	luaOnKey      = "on_key"
)

var errNoScripts = errors.New("script: no scripting engine")

// Script delegates its lifecycle to a Lua behavior. Every attribute other
// than type and src is passed to the behavior as self.params.
type Script struct {
	ecs.Base
	deps     Deps
	src      string
	params   []xml.Attr
	behavior *scripting.Behavior
	keySub   event.Subscription
}

func NewScript(src string, params map[string]string, d Deps) *Script {
	s := &Script{Base: ecs.NewBase(ScriptType), deps: d, src: src}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.params = append(s.params, xml.Attr{Name: xml.Name{Local: k}, Value: params[k]})
	}
	return s
}

func NewScriptFromNode(n *ecs.Node, d Deps) (*Script, error) {
	base, err := ecs.BaseFromNode(n)
	if err != nil {
		return nil, err
	}
	s := &Script{Base: base, deps: d}
	for _, a := range n.Attrs {
		switch a.Name.Local {
		case ecs.TypeAttr:
		case "src":
			s.src = a.Value
		default:
			s.params = append(s.params, a)
		}
	}
	if s.src == "" {
		return nil, fmt.Errorf("missing attribute %q", "src")
	}
	return s, nil
}

func (s *Script) Src() string { return s.src }

// Behavior is the running Lua instance, nil before Start.
func (s *Script) Behavior() *scripting.Behavior { return s.behavior }

func (s *Script) paramMap() map[string]string {
	m := make(map[string]string, len(s.params))
	for _, a := range s.params {
		m[a.Name.Local] = a.Value
	}
	return m
}

func (s *Script) Start() error {
	if s.deps.Scripts == nil {
		return errNoScripts
	}
	if s.behavior == nil {
		b, err := s.deps.Scripts.LoadBehavior(s.src, s.Owner(), s.paramMap())
		if err != nil {
			return err
		}
		s.behavior = b
	}
	s.listen()
	return s.behavior.Call(luaStart)
}

// listen registers the key listener when the behavior wants input.
func (s *Script) listen() {
	if s.deps.Bus == nil || s.keySub.Valid() || !s.behavior.Has(luaOnKey) {
		return
	}
	s.keySub = event.Subscribe(s.deps.Bus, func(ev event.KeyEvent) {
		if o, ok := s.deps.owner(s); ok && !o.Active() {
			return
		}
		if err := s.behavior.Call(luaOnKey, ev.Key, ev.Pressed); err != nil {
			s.deps.logger().Warn("script key handler failed",
				zap.String("src", s.src),
				zap.Stringer("object", s.Owner()),
				zap.Error(err),
			)
		}
	})
}

func (s *Script) Update(dt float64) error {
	if s.behavior == nil {
		return nil
	}
	// Deactivate drops the listener; pick it back up once updates resume.
	s.listen()
	return s.behavior.Call(luaUpdate, dt)
}

func (s *Script) Draw() error {
	if s.behavior == nil {
		return nil
	}
	return s.behavior.Call(luaDraw)
}

func (s *Script) Deactivate() error {
	s.unlisten()
	if s.behavior == nil {
		return nil
	}
	return s.behavior.Call(luaDeactivate)
}

func (s *Script) Destroy() { s.unlisten() }

func (s *Script) unlisten() {
	if s.deps.Bus != nil && s.keySub.Valid() {
		s.deps.Bus.Unsubscribe(s.keySub)
		s.keySub = event.Subscription{}
	}
}

func (s *Script) Export(n *ecs.Node) error {
	n.SetAttr("src", s.src)
	for _, a := range s.params {
		n.SetAttr(a.Name.Local, a.Value)
	}
	return nil
}
