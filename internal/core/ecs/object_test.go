package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComponentBindsOnce(t *testing.T) {
	var log []string
	a := NewGameObject(NewObjectID(1, 0), "a")
	b := NewGameObject(NewObjectID(2, 0), "b")
	p := newProbe("p", &log)

	require.NoError(t, a.AddComponent(p))
	assert.Equal(t, a.ID(), p.Owner())

	err := b.AddComponent(p)
	assert.ErrorIs(t, err, ErrAlreadyBound)
	assert.Empty(t, b.Components())
	assert.Equal(t, a.ID(), p.Owner())
}

func TestUniqueComponentRejected(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(1, 0), "cam")
	first := newUniqueProbe("first", &log)
	second := newUniqueProbe("second", &log)

	require.NoError(t, o.AddComponent(first))
	before := o.Components()

	err := o.AddComponent(second)
	assert.ErrorIs(t, err, ErrNotUnique)
	assert.Equal(t, before, o.Components())
	assert.Nil(t, second.Binding(), "rejected component must stay detached")

	// Non-unique subtypes may repeat.
	require.NoError(t, o.AddComponent(newProbe("x", &log)))
	require.NoError(t, o.AddComponent(newProbe("y", &log)))
	assert.Len(t, o.Components(), 3)
}

func TestDispatchOrderAndContinuation(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(3, 0), "hero")
	a := newProbe("a", &log)
	b := newProbe("b", &log)
	c := newProbe("c", &log)
	b.fail = map[Hook]error{HookUpdate: errHook}
	for _, p := range []*probe{a, b, c} {
		require.NoError(t, o.AddComponent(p))
	}
	require.NoError(t, o.Start())
	log = log[:0]

	err := o.Update(0.016)
	require.Error(t, err)
	assert.Equal(t, []string{"a.Update", "b.Update", "c.Update"}, log)

	var hookErr *HookError
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, o.ID(), hookErr.Object)
	assert.Equal(t, "Probe", hookErr.Component)
	assert.Equal(t, HookUpdate, hookErr.Hook)
	assert.ErrorIs(t, err, errHook)
}

func TestDispatchRecoversPanics(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(3, 0), "hero")
	a := newProbe("a", &log)
	a.panicOn = HookDraw
	b := newProbe("b", &log)
	require.NoError(t, o.AddComponent(a))
	require.NoError(t, o.AddComponent(b))
	require.NoError(t, o.Start())

	err := o.Draw()
	var hookErr *HookError
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, HookDraw, hookErr.Hook)
	assert.Contains(t, log, "b.Draw")
}

func TestFatalStopsPass(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(4, 0), "hero")
	a := newProbe("a", &log)
	a.fail = map[Hook]error{HookUpdate: Fatal(errHook)}
	b := newProbe("b", &log)
	require.NoError(t, o.AddComponent(a))
	require.NoError(t, o.AddComponent(b))
	require.NoError(t, o.Start())
	log = log[:0]

	err := o.Update(1)
	assert.ErrorIs(t, err, ErrFatal)
	assert.Equal(t, []string{"a.Update"}, log)
}

func TestStartRunsExactlyOnce(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(5, 0), "hero")
	a := newProbe("a", &log)
	require.NoError(t, o.AddComponent(a))

	require.NoError(t, o.Start())
	require.NoError(t, o.Start())
	require.NoError(t, o.Update(1))

	late := newProbe("late", &log)
	require.NoError(t, o.AddComponent(late))
	require.NoError(t, o.Update(1))

	assert.Equal(t, []string{
		"a.Start",
		"a.Update",
		"late.Start",
		"a.Update", "late.Update",
	}, log)
}

// spawner adds and removes siblings from inside its own Update.
type spawner struct {
	probe
	owner  *GameObject
	victim Component
	child  Component
}

func (s *spawner) Update(dt float64) error {
	if s.child != nil {
		if err := s.owner.AddComponent(s.child); err != nil {
			return err
		}
		s.child = nil
	}
	if s.victim != nil {
		if err := s.owner.RemoveComponent(s.victim); err != nil {
			return err
		}
		s.victim = nil
	}
	return s.probe.Update(dt)
}

func TestMutationDuringDispatchIsDeferred(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(6, 0), "hero")
	victim := newProbe("victim", &log)
	child := newProbe("child", &log)
	s := &spawner{probe: *newProbe("spawner", &log), owner: o, victim: victim, child: child}

	require.NoError(t, o.AddComponent(s))
	require.NoError(t, o.AddComponent(victim))
	require.NoError(t, o.Start())
	log = log[:0]

	require.NoError(t, o.Update(1))
	assert.Equal(t, []string{"victim.Destroy", "spawner.Update"}, log)
	assert.Equal(t, []Component{s, child}, o.Components())

	log = log[:0]
	require.NoError(t, o.Update(1))
	assert.Equal(t, []string{"child.Start", "spawner.Update", "child.Update"}, log)
}

func TestRemoveComponent(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(7, 0), "hero")
	a := newProbe("a", &log)
	require.NoError(t, o.AddComponent(a))

	require.NoError(t, o.RemoveComponent(a))
	assert.Empty(t, o.Components())
	assert.Equal(t, []string{"a.Destroy"}, log)
	assert.ErrorIs(t, o.RemoveComponent(a), ErrNotAttached)
}

func TestDeactivateStopsUpdates(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(8, 0), "hero")
	a := newProbe("a", &log)
	require.NoError(t, o.AddComponent(a))
	require.NoError(t, o.Start())

	require.NoError(t, o.Deactivate())
	require.NoError(t, o.Update(1))
	require.NoError(t, o.Draw())
	assert.False(t, o.Active())

	o.Activate()
	require.NoError(t, o.Update(1))
	assert.Equal(t, []string{"a.Start", "a.Deactivate", "a.Update"}, log)
}

func TestTransformNotifications(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(9, 0), "hero")
	a := newProbe("a", &log)
	require.NoError(t, o.AddComponent(a))

	o.Translate(Vec3{X: 1})
	o.SetPosition(Vec3{X: 1}) // unchanged
	o.Rotate(Vec3{Y: 90})
	assert.Equal(t, 1, a.moves)
	assert.Equal(t, Vec3{Y: 90}, o.Transform().Rotation)
}

func TestDestroyReleasesComponents(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(10, 0), "hero")
	require.NoError(t, o.AddComponent(newProbe("a", &log)))
	require.NoError(t, o.AddComponent(newProbe("b", &log)))

	o.Destroy()
	assert.Equal(t, []string{"a.Destroy", "b.Destroy"}, log)
	assert.Empty(t, o.Components())
	assert.ErrorIs(t, o.AddComponent(newProbe("c", &log)), ErrUnknownObject)
}

func TestObjectExport(t *testing.T) {
	var log []string
	o := NewGameObject(NewObjectID(11, 0), "hero")
	o.SetPosition(Vec3{1, 2, 3})
	require.NoError(t, o.AddComponent(newProbe("a", &log)))

	n, err := o.ExportNode()
	require.NoError(t, err)
	out, err := n.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`<Object name="hero" active="true">`+
			`<Transform position="1 2 3" rotation="0 0 0" scale="1 1 1"></Transform>`+
			`<Component type="Probe" label="a"></Component>`+
			`</Object>`,
		string(out))
}
