package catalog

// Effect is the closed set of things an upgrade level or a technology can do.
// The only implementations are ResourceMultiplier, GlobalMultiplier, TierUnlock
// and CostReduction; consumers switch over them exhaustively.
type Effect interface {
	// EffectKind returns the tag used in catalog sources.
	EffectKind() string
	sealed()
}

// Effect tags as written in CUE catalogs.
const (
	EffectResourceMultiplier = "resource_multiplier"
	EffectGlobalMultiplier   = "global_multiplier"
	EffectTierUnlock         = "tier_unlock"
	EffectCostReduction      = "cost_reduction"
)

// ResourceMultiplier scales production of one resource.
type ResourceMultiplier struct {
	Resource ResourceKind
	Factor   float64
}

// GlobalMultiplier scales production of every resource.
type GlobalMultiplier struct {
	Factor float64
}

// TierUnlock makes every resource of Tier available.
type TierUnlock struct {
	Tier string
}

// CostReduction scales the growth rate of producer costs.
// An empty Producers list applies to every producer.
type CostReduction struct {
	Factor    float64
	Producers []ProducerKind
}

func (ResourceMultiplier) EffectKind() string { return EffectResourceMultiplier }
func (GlobalMultiplier) EffectKind() string   { return EffectGlobalMultiplier }
func (TierUnlock) EffectKind() string         { return EffectTierUnlock }
func (CostReduction) EffectKind() string      { return EffectCostReduction }

func (ResourceMultiplier) sealed() {}
func (GlobalMultiplier) sealed()   {}
func (TierUnlock) sealed()         {}
func (CostReduction) sealed()      {}

// Applies reports whether the reduction covers the producer.
func (r CostReduction) Applies(kind ProducerKind) bool {
	if len(r.Producers) == 0 {
		return true
	}
	for _, p := range r.Producers {
		if p == kind {
			return true
		}
	}
	return false
}
