package catalog

import "github.com/JonMunkholm/sheetsync/internal/core"

func init() {
	registerGame()
}

// Rarity grades an item.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
)

var RarityEnum = core.NewEnum[Rarity]("Rarity", "Common", "Uncommon", "Rare", "Epic", "Legendary")

func (r Rarity) String() string { return RarityEnum.String(r) }

func (r Rarity) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Element is the damage type of a unit.
type Element int

const (
	Neutral Element = iota
	Fire
	Water
	Earth
	Air
)

var ElementEnum = core.NewEnum[Element]("Element", "Neutral", "Fire", "Water", "Earth", "Air")

func (e Element) String() string { return ElementEnum.String(e) }

func (e Element) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// Game is the container populated by the "game" dataset.
type Game struct {
	Items  []Item     `json:"items"`
	Units  []Unit     `json:"units"`
	Config GameConfig `json:"config"`
}

type Item struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Rarity    Rarity  `json:"rarity"`
	Price     float64 `json:"price"`
	Stackable bool    `json:"stackable"`
}

type Stats struct {
	Health int     `json:"health"`
	Attack int     `json:"attack"`
	Speed  float64 `json:"speed"`
}

type Unit struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Level       int       `json:"level"`
	Element     Element   `json:"element"`
	Resistances []Element `json:"resistances"`
	Drops       []int     `json:"drops"`
	Boss        bool      `json:"boss"`
	Stats       Stats     `json:"stats"`
}

// GameConfig is a one-row page of global tuning values.
type GameConfig struct {
	Version    string  `json:"version"`
	MaxLevel   int     `json:"maxLevel"`
	XPRate     float64 `json:"xpRate"`
	PvPEnabled bool    `json:"pvpEnabled"`
}

var (
	itemSchema = core.NewSchema("Item",
		core.IntField("id", func(i *Item) *int { return &i.ID }),
		core.StringField("Name", func(i *Item) *string { return &i.Name }),
		core.EnumField("Rarity", RarityEnum, func(i *Item) *Rarity { return &i.Rarity }),
		core.FloatField("Price", func(i *Item) *float64 { return &i.Price }),
		core.BoolField("Stackable", func(i *Item) *bool { return &i.Stackable }),
	)

	statsSchema = core.NewSchema("Stats",
		core.IntField("Health", func(s *Stats) *int { return &s.Health }),
		core.IntField("Attack", func(s *Stats) *int { return &s.Attack }),
		core.FloatField("Speed", func(s *Stats) *float64 { return &s.Speed }),
	)

	unitSchema = core.Nest(core.NewSchema("Unit",
		core.IntField("id", func(u *Unit) *int { return &u.ID }),
		core.StringField("Name", func(u *Unit) *string { return &u.Name }),
		core.IntField("Level", func(u *Unit) *int { return &u.Level }),
		core.EnumField("Element", ElementEnum, func(u *Unit) *Element { return &u.Element }),
		core.EnumListField("Resistances", ElementEnum, func(u *Unit) *[]Element { return &u.Resistances }),
		core.IntListField("Drops", func(u *Unit) *[]int { return &u.Drops }),
		core.BoolField("Boss", func(u *Unit) *bool { return &u.Boss }),
	), "Stats", statsSchema, func(u *Unit) *Stats { return &u.Stats })

	configSchema = core.NewSchema("GameConfig",
		core.StringField("Version", func(c *GameConfig) *string { return &c.Version }),
		core.IntField("MaxLevel", func(c *GameConfig) *int { return &c.MaxLevel }),
		core.FloatField("XPRate", func(c *GameConfig) *float64 { return &c.XPRate }),
		core.BoolField("PvPEnabled", func(c *GameConfig) *bool { return &c.PvPEnabled }),
	)
)

// GameDefinition declares the pages of the game document. Targets import in
// this order. The document comes from the request or SHEETS_DEFAULT_DOCUMENT.
var GameDefinition = core.Definition[Game]{
	Key:   "game",
	Label: "Game data",
	Targets: []core.Target[Game]{
		core.CollectionTarget("Items", "Items", itemSchema, func(g *Game) *[]Item { return &g.Items }),
		core.CollectionTarget("Units", "Units", unitSchema, func(g *Game) *[]Unit { return &g.Units }),
		core.SingleTarget("Config", "Config", configSchema, func(g *Game) *GameConfig { return &g.Config }),
	},
}

func registerGame() {
	core.Register(GameDefinition)
}
