package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

//go:embed default.cue
var defaultSource []byte

// Default compiles the embedded default catalog.
func Default() (*Catalog, error) {
	return Compile("default.cue", defaultSource)
}

// Load reads and compiles a CUE catalog from disk.
func Load(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Compile(filepath.Base(path), src)
}

// Compile parses CUE source, unifies it with the #Catalog schema and builds
// a validated Catalog. filename is used in error positions and as the
// catalog name when the source declares none.
func Compile(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Catalog"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	name, err := unified.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	resources, err := parseResources(unified.LookupPath(cue.ParsePath("resources")))
	if err != nil {
		return nil, err
	}
	producers, err := parseProducers(unified.LookupPath(cue.ParsePath("producers")))
	if err != nil {
		return nil, err
	}
	upgrades, err := parseUpgrades(unified.LookupPath(cue.ParsePath("upgrades")))
	if err != nil {
		return nil, err
	}
	technologies, err := parseTechnologies(unified.LookupPath(cue.ParsePath("technologies")))
	if err != nil {
		return nil, err
	}

	return New(name, resources, producers, upgrades, technologies)
}

func parseResources(v cue.Value) ([]Resource, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Resource
	for iter.Next() {
		rv := iter.Value()
		r := Resource{Kind: ResourceKind(iter.Label())}
		if r.Tier, err = stringField(rv, "tier"); err != nil {
			return nil, err
		}
		if r.Description, err = stringField(rv, "description"); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseProducers(v cue.Value) ([]Producer, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Producer
	for iter.Next() {
		pv := iter.Value()
		p := Producer{Kind: ProducerKind(iter.Label())}
		target, err := stringField(pv, "target")
		if err != nil {
			return nil, err
		}
		p.Target = ResourceKind(target)
		if p.Output, err = floatField(pv, "output"); err != nil {
			return nil, err
		}
		if p.Growth, err = floatField(pv, "growth"); err != nil {
			return nil, err
		}
		if p.Cost, err = parseCost(pv.LookupPath(cue.ParsePath("cost"))); err != nil {
			return nil, err
		}
		if p.Description, err = stringField(pv, "description"); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseUpgrades(v cue.Value) ([]Upgrade, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Upgrade
	for iter.Next() {
		uv := iter.Value()
		u := Upgrade{Kind: UpgradeKind(iter.Label())}
		if u.Growth, err = floatField(uv, "growth"); err != nil {
			return nil, err
		}
		maxLevel, err := uv.LookupPath(cue.ParsePath("max_level")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		u.MaxLevel = int(maxLevel)
		if u.Cost, err = parseCost(uv.LookupPath(cue.ParsePath("cost"))); err != nil {
			return nil, err
		}
		if u.Effect, err = parseEffect(uv.LookupPath(cue.ParsePath("effect"))); err != nil {
			return nil, err
		}
		if u.Description, err = stringField(uv, "description"); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func parseTechnologies(v cue.Value) ([]Technology, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Technology
	for iter.Next() {
		tv := iter.Value()
		t := Technology{Kind: TechnologyKind(iter.Label())}
		if t.Cost, err = parseCost(tv.LookupPath(cue.ParsePath("cost"))); err != nil {
			return nil, err
		}
		if t.Effect, err = parseEffect(tv.LookupPath(cue.ParsePath("effect"))); err != nil {
			return nil, err
		}
		if t.Description, err = stringField(tv, "description"); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func parseCost(v cue.Value) (CostMap, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	cost := CostMap{}
	for iter.Next() {
		amount, err := iter.Value().Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cost[ResourceKind(iter.Label())] = amount
	}
	return cost, nil
}

// parseEffect dispatches on the kind tag; the schema has already narrowed
// the disjunction, so the remaining fields are present and concrete.
func parseEffect(v cue.Value) (Effect, error) {
	kind, err := stringField(v, "kind")
	if err != nil {
		return nil, err
	}
	switch kind {
	case EffectResourceMultiplier:
		resource, err := stringField(v, "resource")
		if err != nil {
			return nil, err
		}
		factor, err := floatField(v, "factor")
		if err != nil {
			return nil, err
		}
		return ResourceMultiplier{Resource: ResourceKind(resource), Factor: factor}, nil
	case EffectGlobalMultiplier:
		factor, err := floatField(v, "factor")
		if err != nil {
			return nil, err
		}
		return GlobalMultiplier{Factor: factor}, nil
	case EffectTierUnlock:
		tier, err := stringField(v, "tier")
		if err != nil {
			return nil, err
		}
		return TierUnlock{Tier: tier}, nil
	case EffectCostReduction:
		factor, err := floatField(v, "factor")
		if err != nil {
			return nil, err
		}
		list, err := v.LookupPath(cue.ParsePath("producers")).List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var producers []ProducerKind
		for list.Next() {
			p, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			producers = append(producers, ProducerKind(p))
		}
		return CostReduction{Factor: factor, Producers: producers}, nil
	default:
		return nil, &CompileError{
			Field:   "effect.kind",
			Message: fmt.Sprintf("unknown effect kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

func stringField(v cue.Value, field string) (string, error) {
	s, err := v.LookupPath(cue.ParsePath(field)).String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func floatField(v cue.Value, field string) (float64, error) {
	f, err := v.LookupPath(cue.ParsePath(field)).Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}
