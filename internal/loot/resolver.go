package loot

import (
	"math/rand"

	"github.com/runevale/server/internal/data"
)

// Rand is the random source injected into resolution. The live server passes
// SystemRand(); tests pass a seeded or fixed source so rolls are replayable.
type Rand interface {
	Float64() float64 // uniform in [0,1)
	IntN(n int) int   // uniform in [0,n)
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
func (systemRand) IntN(n int) int   { return rand.Intn(n) }

// SystemRand returns the process-wide random source.
func SystemRand() Rand { return systemRand{} }

// ResolvedDrop is one concrete drop produced by resolution.
type ResolvedDrop struct {
	ItemID   int32
	Quantity int32
}

// Mods adjusts resolution without touching the read-only table. Either field
// may be nil. Chance applies to the probabilistic tiers only — guaranteed
// entries always drop. CoinAmount applies after the ±25% perturbation.
type Mods struct {
	Chance     func(itemID int32, chance float64) float64
	CoinAmount func(amount int32) int32
}

// Resolve rolls a table against a random source and returns the concrete
// drops. Tiers are rolled in fixed order: guaranteed entries unconditionally,
// then each common, uncommon, and rare entry independently (tiers are not
// mutually exclusive). Coin quantities are perturbed to a uniform integer in
// [⌊0.75q⌋, ⌊1.25q⌋]. An empty result means the mob dropped nothing; that is
// a legitimate outcome, not an error.
//
// Pure given its inputs: no logging, no shared state, no side effects.
func Resolve(t *LootTable, rng Rand) []ResolvedDrop {
	return ResolveMods(t, rng, Mods{})
}

// ResolveMods is Resolve with chance/amount modifiers applied.
func ResolveMods(t *LootTable, rng Rand, mods Mods) []ResolvedDrop {
	if t == nil {
		return nil
	}
	var drops []ResolvedDrop

	for _, e := range t.Guaranteed {
		drops = append(drops, rollQuantity(e, rng, mods))
	}
	for _, tier := range [][]DropEntry{t.Common, t.Uncommon, t.Rare} {
		for _, e := range tier {
			chance := e.Chance
			if mods.Chance != nil {
				chance = mods.Chance(e.ItemID, chance)
			}
			if rng.Float64() < chance {
				drops = append(drops, rollQuantity(e, rng, mods))
			}
		}
	}
	return drops
}

func rollQuantity(e DropEntry, rng Rand, mods Mods) ResolvedDrop {
	qty := e.Quantity
	if e.ItemID == data.CoinItemID {
		lo := e.Quantity * 3 / 4
		hi := e.Quantity * 5 / 4
		qty = lo + int32(rng.IntN(int(hi-lo)+1))
		if mods.CoinAmount != nil {
			qty = mods.CoinAmount(qty)
		}
	}
	return ResolvedDrop{ItemID: e.ItemID, Quantity: qty}
}
