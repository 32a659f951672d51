package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *FactoryRegistry {
	t.Helper()
	reg := NewFactoryRegistry()
	require.NoError(t, reg.Register("Rotator", FactoryFor(newRotatorFromNode)))
	return reg
}

func TestRegisterDuplicateTag(t *testing.T) {
	reg := newTestRegistry(t)

	err := reg.Register("Rotator", FactoryFor(newRotatorFromNode))
	assert.ErrorIs(t, err, ErrDuplicateFactory)
	assert.Equal(t, []string{"Rotator"}, reg.Tags())

	assert.Panics(t, func() { reg.MustRegister("Rotator", FactoryFor(newRotatorFromNode)) })
}

func TestCreateRotatorScenario(t *testing.T) {
	reg := newTestRegistry(t)

	n, err := ParseNode([]byte(`<Component type="Rotator" speed="2.0"/>`))
	require.NoError(t, err)

	c, err := reg.Create(n)
	require.NoError(t, err)
	r, ok := c.(*rotator)
	require.True(t, ok)
	assert.Equal(t, "Rotator", r.Type())
	assert.Equal(t, 2.0, r.speed)
	assert.Nil(t, r.Binding())

	obj := NewGameObject(NewObjectID(1, 0), "spinner")
	require.NoError(t, obj.AddComponent(r))
	require.NoError(t, obj.Start())
	require.NoError(t, obj.Update(0.1))
	assert.InDelta(t, 0.2, r.angle, 1e-9)

	out, err := ExportNode(r)
	require.NoError(t, err)
	speed, err := out.Float("speed")
	require.NoError(t, err)
	assert.Equal(t, 2.0, speed)
	tag, _ := out.Attr(TypeAttr)
	assert.Equal(t, "Rotator", tag)
}

func TestCreateRoundTripIsByteIdentical(t *testing.T) {
	reg := newTestRegistry(t)
	original := &rotator{Base: NewBase("Rotator"), speed: 0.75}

	first, err := Marshal(original)
	require.NoError(t, err)

	n, err := ParseNode(first)
	require.NoError(t, err)
	rebuilt, err := reg.Create(n)
	require.NoError(t, err)

	second, err := Marshal(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCreateFailures(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustRegister("Broken", func(*Node) (Component, error) { panic("bad node") })
	reg.MustRegister("Liar", func(*Node) (Component, error) {
		return &rotator{Base: NewBase("Other")}, nil
	})
	reg.MustRegister("Hollow", FactoryFor(func(*Node) (*rotator, error) { return nil, nil }))
	reg.MustRegister("Empty", func(*Node) (Component, error) { return nil, nil })

	tests := []struct {
		name string
		xml  string
		want error
	}{
		{"missing type", `<Component speed="1"/>`, ErrMissingType},
		{"empty type", `<Component type="" speed="1"/>`, ErrMissingType},
		{"unknown tag", `<Component type="Nope"/>`, ErrUnknownType},
		{"missing field", `<Component type="Rotator"/>`, ErrMalformed},
		{"bad field", `<Component type="Rotator" speed="fast"/>`, ErrMalformed},
		{"panicking factory", `<Component type="Broken"/>`, ErrMalformed},
		{"wrong tag", `<Component type="Liar"/>`, ErrMalformed},
		{"typed nil component", `<Component type="Hollow"/>`, ErrMalformed},
		{"nil component", `<Component type="Empty"/>`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNode([]byte(tt.xml))
			require.NoError(t, err)
			c, err := reg.Create(n)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBaseFromNodeRequiresType(t *testing.T) {
	_, err := BaseFromNode(NewNode("Component"))
	assert.ErrorIs(t, err, ErrMissingType)

	n := NewNode("Component")
	n.SetAttr(TypeAttr, "Probe")
	b, err := BaseFromNode(n)
	require.NoError(t, err)
	assert.Equal(t, "Probe", b.Type())
}
