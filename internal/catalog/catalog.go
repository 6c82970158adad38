package catalog

import (
	"fmt"
	"sort"
)

// ResourceKind identifies a resource declared by the catalog.
type ResourceKind string

// ProducerKind identifies a producer declared by the catalog.
type ProducerKind string

// UpgradeKind identifies a leveled upgrade declared by the catalog.
type UpgradeKind string

// TechnologyKind identifies a one-time technology declared by the catalog.
type TechnologyKind string

// CostMap is an amount required per resource.
type CostMap map[ResourceKind]float64

// Clone returns an independent copy of the cost map.
func (c CostMap) Clone() CostMap {
	out := make(CostMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// SortedKinds returns the resources of the cost map in lexical order.
func (c CostMap) SortedKinds() []ResourceKind {
	kinds := make([]ResourceKind, 0, len(c))
	for k := range c {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Resource is a resource kind with its optional tier.
// A resource without a tier is always available.
type Resource struct {
	Kind        ResourceKind
	Tier        string
	Description string
}

// Producer generates its target resource at Output units per second per owned unit.
type Producer struct {
	Kind        ProducerKind
	Target      ResourceKind
	Output      float64
	Growth      float64
	Cost        CostMap
	Description string
}

// Upgrade is bought level by level. Each level applies Effect once more.
// MaxLevel of zero means the upgrade is uncapped.
type Upgrade struct {
	Kind        UpgradeKind
	Growth      float64
	MaxLevel    int
	Cost        CostMap
	Effect      Effect
	Description string
}

// Technology is researched once and applies Effect permanently.
type Technology struct {
	Kind        TechnologyKind
	Cost        CostMap
	Effect      Effect
	Description string
}

// Catalog is the compiled, validated game content.
// A Catalog is immutable after compilation and safe for concurrent reads.
type Catalog struct {
	Name         string
	Resources    []Resource
	Producers    []Producer
	Upgrades     []Upgrade
	Technologies []Technology

	resourceIdx   map[ResourceKind]int
	producerIdx   map[ProducerKind]int
	upgradeIdx    map[UpgradeKind]int
	technologyIdx map[TechnologyKind]int
	gates         map[string]TechnologyKind
}

// New builds a catalog from already decoded entries and validates it.
// It is the entry point for catalogs assembled in Go; CUE sources go through Compile.
func New(name string, resources []Resource, producers []Producer, upgrades []Upgrade, technologies []Technology) (*Catalog, error) {
	c := &Catalog{
		Name:         name,
		Resources:    resources,
		Producers:    producers,
		Upgrades:     upgrades,
		Technologies: technologies,
	}
	if errs := Validate(c); len(errs) > 0 {
		return nil, &InvalidCatalogError{Name: name, Errors: errs}
	}
	c.index()
	return c, nil
}

func (c *Catalog) index() {
	c.resourceIdx = make(map[ResourceKind]int, len(c.Resources))
	for i, r := range c.Resources {
		c.resourceIdx[r.Kind] = i
	}
	c.producerIdx = make(map[ProducerKind]int, len(c.Producers))
	for i, p := range c.Producers {
		c.producerIdx[p.Kind] = i
	}
	c.upgradeIdx = make(map[UpgradeKind]int, len(c.Upgrades))
	for i, u := range c.Upgrades {
		c.upgradeIdx[u.Kind] = i
	}
	c.technologyIdx = make(map[TechnologyKind]int, len(c.Technologies))
	c.gates = make(map[string]TechnologyKind)
	for i, t := range c.Technologies {
		c.technologyIdx[t.Kind] = i
		if tu, ok := t.Effect.(TierUnlock); ok {
			c.gates[tu.Tier] = t.Kind
		}
	}
}

// ResourceIndex returns the declaration index of a resource.
func (c *Catalog) ResourceIndex(kind ResourceKind) (int, bool) {
	i, ok := c.resourceIdx[kind]
	return i, ok
}

// ProducerIndex returns the declaration index of a producer.
func (c *Catalog) ProducerIndex(kind ProducerKind) (int, bool) {
	i, ok := c.producerIdx[kind]
	return i, ok
}

// UpgradeIndex returns the declaration index of an upgrade.
func (c *Catalog) UpgradeIndex(kind UpgradeKind) (int, bool) {
	i, ok := c.upgradeIdx[kind]
	return i, ok
}

// TechnologyIndex returns the declaration index of a technology.
func (c *Catalog) TechnologyIndex(kind TechnologyKind) (int, bool) {
	i, ok := c.technologyIdx[kind]
	return i, ok
}

// ResourceKinds returns every resource kind in declaration order.
func (c *Catalog) ResourceKinds() []ResourceKind {
	kinds := make([]ResourceKind, len(c.Resources))
	for i, r := range c.Resources {
		kinds[i] = r.Kind
	}
	return kinds
}

// Gate returns the technology that unlocks the resource's tier.
// ok is false when the resource has no tier and is therefore always available.
func (c *Catalog) Gate(kind ResourceKind) (TechnologyKind, bool) {
	i, ok := c.resourceIdx[kind]
	if !ok || c.Resources[i].Tier == "" {
		return "", false
	}
	tech, ok := c.gates[c.Resources[i].Tier]
	return tech, ok
}

// Summary is a one-line description used by the CLI and logs.
func (c *Catalog) Summary() string {
	return fmt.Sprintf("%s: %d resources, %d producers, %d upgrades, %d technologies",
		c.Name, len(c.Resources), len(c.Producers), len(c.Upgrades), len(c.Technologies))
}
