package core

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStats struct {
	Health int
	Speed  float64
}

type testUnit struct {
	Name    string
	Level   int
	Active  bool
	Drops   []int
	Color   color
	Palette []color
	Stats   testStats
}

var statsSchema = NewSchema("Stats",
	IntField("Health", func(s *testStats) *int { return &s.Health }),
	FloatField("Speed", func(s *testStats) *float64 { return &s.Speed }),
)

func newUnitSchema() *Schema[testUnit] {
	s := NewSchema("Unit",
		StringField("Name", func(u *testUnit) *string { return &u.Name }),
		IntField("Level", func(u *testUnit) *int { return &u.Level }),
		BoolField("Active", func(u *testUnit) *bool { return &u.Active }),
		IntListField("Drops", func(u *testUnit) *[]int { return &u.Drops }),
		EnumField("Color", colorEnum, func(u *testUnit) *color { return &u.Color }),
		EnumListField("Palette", colorEnum, func(u *testUnit) *[]color { return &u.Palette }),
	)
	return Nest(s, "Stats", statsSchema, func(u *testUnit) *testStats { return &u.Stats })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestSchema_Names(t *testing.T) {
	s := newUnitSchema()

	assert.Equal(t, "Unit", s.Name())
	assert.Equal(t, []string{
		"Name", "Level", "Active", "Drops", "Color", "Palette",
		"Stats.Health", "Stats.Speed",
	}, s.Names())
}

func TestSchema_FieldLookupIsCaseSensitive(t *testing.T) {
	s := newUnitSchema()

	f, ok := s.Field("Level")
	require.True(t, ok)
	assert.Equal(t, KindInt, f.Type.Kind)

	_, ok = s.Field("level")
	assert.False(t, ok)
}

func TestSchema_NestedSetter(t *testing.T) {
	s := newUnitSchema()

	f, ok := s.Field("Stats.Speed")
	require.True(t, ok)

	var u testUnit
	f.Set(&u, 1.5)
	assert.Equal(t, 1.5, u.Stats.Speed)
}

func TestNewSchema_Panics(t *testing.T) {
	name := func(u *testUnit) *string { return &u.Name }

	assert.Panics(t, func() {
		NewSchema("Dup", StringField("Name", name), StringField("Name", name))
	})
	assert.Panics(t, func() {
		NewSchema("Blank", StringField("", name))
	})
	assert.Panics(t, func() {
		NewSchema("NoSetter", Field[testUnit]{Name: "Name"})
	})
}
