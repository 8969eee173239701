package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unitPage = "id,Name,Level,Active,Drops,Color,Palette,Stats.Health,Stats.Speed\n" +
	`1,Knight,3,yes,"1,2",Blue,"Red,Green",100,"1,5"` + "\n" +
	",---,,,,,,,\n" +
	`2,Archer,x,maybe,"4,y",Teal,"Red,Purple",oops,2` + "\n"

func TestAssembleCollection(t *testing.T) {
	log, buf := bufferLogger()
	table := ReadTable(unitPage)
	b := Bind(table.Headers, newUnitSchema(), log)

	units := AssembleCollection(b, table.Rows, log)
	require.Len(t, units, 2)

	assert.Equal(t, testUnit{
		Name:    "Knight",
		Level:   3,
		Active:  true,
		Drops:   []int{1, 2},
		Color:   blue,
		Palette: []color{red, green},
		Stats:   testStats{Health: 100, Speed: 1.5},
	}, units[0])

	// Bad cells degrade to their fallback values; the element is kept.
	archer := units[1]
	assert.Equal(t, "Archer", archer.Name)
	assert.Equal(t, 0, archer.Level)
	assert.False(t, archer.Active)
	assert.Equal(t, []int{4}, archer.Drops)
	assert.Equal(t, red, archer.Color)
	assert.Nil(t, archer.Palette)
	assert.Equal(t, 0, archer.Stats.Health)
	assert.Equal(t, 2.0, archer.Stats.Speed)

	assert.Contains(t, buf.String(), "cell parse failed")
}

func TestAssembleCollection_NoRows(t *testing.T) {
	table := ReadTable("Name,Level")
	b := Bind(table.Headers, newUnitSchema(), discardLogger())

	units := AssembleCollection(b, table.Rows, discardLogger())
	assert.NotNil(t, units)
	assert.Empty(t, units)
}

func TestAssembleSingle(t *testing.T) {
	table := ReadTable("Name,Level\nFirst,1\nSecond,2")
	b := Bind(table.Headers, newUnitSchema(), discardLogger())

	u, ok := AssembleSingle(b, table.Rows, discardLogger())
	require.True(t, ok)
	assert.Equal(t, "First", u.Name)
	assert.Equal(t, 1, u.Level)
}

func TestAssembleSingle_NoRows(t *testing.T) {
	table := ReadTable("Name,Level\n")
	b := Bind(table.Headers, newUnitSchema(), discardLogger())

	_, ok := AssembleSingle(b, table.Rows, discardLogger())
	assert.False(t, ok)
}

func TestAssemble_UnsupportedFieldSkipped(t *testing.T) {
	log, buf := bufferLogger()
	schema := NewSchema("Odd",
		StringField("Name", func(u *testUnit) *string { return &u.Name }),
		Field[testUnit]{Name: "Mystery", Type: CellType{Kind: KindUnsupported}, set: func(*testUnit, any) {
			t.Fatal("setter must not be called for unsupported types")
		}},
	)
	table := ReadTable("Name,Mystery\nA,B")
	b := Bind(table.Headers, schema, log)

	units := AssembleCollection(b, table.Rows, log)
	require.Len(t, units, 1)
	assert.Equal(t, "A", units[0].Name)
	assert.Contains(t, buf.String(), "no parser for field type")
}
