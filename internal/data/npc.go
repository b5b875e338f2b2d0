package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcCategory classifies NPC templates. Only combat-relevant categories
// (mob, boss, questgiver) get loot tables.
type NpcCategory int

const (
	NpcMob NpcCategory = iota
	NpcBoss
	NpcQuestGiver
	NpcCivilian
)

func (c NpcCategory) String() string {
	switch c {
	case NpcMob:
		return "mob"
	case NpcBoss:
		return "boss"
	case NpcQuestGiver:
		return "questgiver"
	case NpcCivilian:
		return "civilian"
	}
	panic(fmt.Sprintf("data: unhandled NpcCategory %d", int(c)))
}

// ParseNpcCategory converts a YAML category string; unknown is a load error.
func ParseNpcCategory(s string) (NpcCategory, error) {
	switch s {
	case "mob":
		return NpcMob, nil
	case "boss":
		return NpcBoss, nil
	case "questgiver":
		return NpcQuestGiver, nil
	case "civilian":
		return NpcCivilian, nil
	}
	return 0, fmt.Errorf("unknown npc category %q", s)
}

// Combatant reports whether NPCs of this category can be killed for loot.
func (c NpcCategory) Combatant() bool {
	switch c {
	case NpcMob, NpcBoss, NpcQuestGiver:
		return true
	case NpcCivilian:
		return false
	}
	panic(fmt.Sprintf("data: unhandled NpcCategory %d", int(c)))
}

// DropSpec is one entry of an NPC's unified drop specification as authored in
// YAML. Tier strings: always / common / uncommon / rare / very_rare.
// Default=true marks the template's default drop (bones and the like); it is
// promoted to a guaranteed entry regardless of tier or chance.
type DropSpec struct {
	ItemID   int32   `yaml:"item_id"`
	Quantity int32   `yaml:"quantity"`
	Chance   float64 `yaml:"chance"` // [0,1]
	Tier     string  `yaml:"tier"`
	Default  bool    `yaml:"default"`
}

// NpcDef holds static data for an NPC template.
type NpcDef struct {
	NpcID    int32
	Name     string
	Category NpcCategory
	Level    int16
	Drops    []DropSpec
}

type npcEntry struct {
	NpcID    int32      `yaml:"npc_id"`
	Name     string     `yaml:"name"`
	Category string     `yaml:"category"`
	Level    int16      `yaml:"level"`
	Drops    []DropSpec `yaml:"drops"`
}

type npcListFile struct {
	Npcs []npcEntry `yaml:"npcs"`
}

// NpcTable holds all NPC templates indexed by NpcID.
type NpcTable struct {
	templates map[int32]*NpcDef
}

// LoadNpcTable loads NPC templates from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc_list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc_list: %w", err)
	}
	t := &NpcTable{templates: make(map[int32]*NpcDef, len(f.Npcs))}
	for i := range f.Npcs {
		e := &f.Npcs[i]
		cat, err := ParseNpcCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("npc %d (%s): %w", e.NpcID, e.Name, err)
		}
		t.templates[e.NpcID] = &NpcDef{
			NpcID:    e.NpcID,
			Name:     e.Name,
			Category: cat,
			Level:    e.Level,
			Drops:    e.Drops,
		}
	}
	return t, nil
}

// Get returns an NPC template by ID, or nil if not found.
func (t *NpcTable) Get(npcID int32) *NpcDef {
	return t.templates[npcID]
}

// All iterates every template. Order is not defined.
func (t *NpcTable) All(fn func(*NpcDef)) {
	for _, def := range t.templates {
		fn(def)
	}
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}
