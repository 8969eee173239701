package catalog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gamePages = map[string]string{
	"Items": "id,Name,Rarity,Price,Stackable,_Notes\r\n" +
		"1,Potion,common,\"2,5\",yes,cheap\r\n" +
		",,,,,section break\r\n" +
		"2,Excalibur,Legendary,999.9,no,\r\n",
	"Units": "id,Name,Level,Element,Resistances,Drops,Boss,Stats.Health,Stats.Attack,Stats.Speed,Lore\n" +
		"1,Slime,1,Water,\"Fire, Earth\",\"1,2\",false,10,2,0.5,wobbly\n" +
		"2,Dragon,50,Plasma,\"Fire,Ice\",\"2,x,3\",true,900,120,\"1,5\",old\n",
	"Config": "Version,MaxLevel,XPRate,PvPEnabled\n1.4.2,60,1.25,TRUE\n0.0.0,1,1,false\n",
}

func gameFetcher(ctx context.Context, url string) (string, error) {
	return gamePages[url[strings.LastIndex(url, "/")+1:]], nil
}

func TestGameRegistered(t *testing.T) {
	ds, ok := core.Get("game")
	require.True(t, ok)

	info := ds.Info()
	assert.Equal(t, "Game data", info.Label)
	require.Len(t, info.Targets, 3)
	assert.Equal(t, "Items", info.Targets[0].Page)
	assert.Equal(t, "collection", info.Targets[1].Kind)
	assert.Equal(t, "single", info.Targets[2].Kind)
}

func TestGameImport(t *testing.T) {
	imp := GameDefinition.NewImporter("doc", core.FetchFunc(gameFetcher),
		core.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		core.WithURLFormat("mem://%s/%s"),
	)

	var completed *Game
	imp.OnComplete(func(g *Game) { completed = g })

	require.NoError(t, imp.Run(context.Background()))
	game := imp.Container()
	assert.Same(t, game, completed)

	assert.Equal(t, []Item{
		{ID: 1, Name: "Potion", Rarity: Common, Price: 2.5, Stackable: true},
		{ID: 2, Name: "Excalibur", Rarity: Legendary, Price: 999.9},
	}, game.Items)

	require.Len(t, game.Units, 2)
	assert.Equal(t, Unit{
		ID: 1, Name: "Slime", Level: 1, Element: Water,
		Resistances: []Element{Fire, Earth},
		Drops:       []int{1, 2},
		Stats:       Stats{Health: 10, Attack: 2, Speed: 0.5},
	}, game.Units[0])

	dragon := game.Units[1]
	assert.Equal(t, Neutral, dragon.Element, "unknown scalar enum falls back to zero")
	assert.Nil(t, dragon.Resistances, "one bad item voids the enum list")
	assert.Equal(t, []int{2, 3}, dragon.Drops, "bad int list items are skipped")
	assert.True(t, dragon.Boss)
	assert.Equal(t, 1.5, dragon.Stats.Speed)

	assert.Equal(t, GameConfig{Version: "1.4.2", MaxLevel: 60, XPRate: 1.25, PvPEnabled: true}, game.Config)
}

func TestEnumText(t *testing.T) {
	b, err := Epic.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Epic", string(b))
	assert.Equal(t, "Air", Air.String())
	assert.Equal(t, "7", Element(7).String())
}
