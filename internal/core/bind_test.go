package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	log, buf := bufferLogger()
	headers := ReadTable("Name,_note,Level,Unknown,Stats.Health").Headers

	b := Bind(headers, newUnitSchema(), log)

	require.Equal(t, 3, b.Len())
	assert.Equal(t, []int{0, 2, 4}, b.Columns)
	assert.Equal(t, "Name", b.Fields[0].Name)
	assert.Equal(t, "Level", b.Fields[1].Name)
	assert.Equal(t, "Stats.Health", b.Fields[2].Name)

	out := buf.String()
	assert.Contains(t, out, "header matches no field")
	assert.Contains(t, out, "header=Unknown")
	assert.NotContains(t, out, "_note")
}

func TestBind_DuplicateHeaderLastWins(t *testing.T) {
	log, buf := bufferLogger()
	table := ReadTable("Level,Level\n1,2")

	b := Bind(table.Headers, newUnitSchema(), log)
	require.Equal(t, 2, b.Len())
	assert.Contains(t, buf.String(), "duplicate header")

	units := AssembleCollection(b, table.Rows, log)
	require.Len(t, units, 1)
	assert.Equal(t, 2, units[0].Level)
}

func TestBind_NoHeaders(t *testing.T) {
	b := Bind(HeaderSet{IDColumn: -1}, newUnitSchema(), discardLogger())
	assert.Equal(t, 0, b.Len())
}
