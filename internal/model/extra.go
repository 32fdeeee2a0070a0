package model

import "github.com/shopspring/decimal"

// PricingType selects how an extra's variant price is multiplied out.
type PricingType string

const (
	PerPage    PricingType = "per_page"
	PerBooklet PricingType = "per_booklet"
	PerLength  PricingType = "per_length"
	PerForm    PricingType = "per_form"
)

// ApplicationScope limits which booklet sections an extra may be attached to.
// The zero value means both.
type ApplicationScope string

const (
	ScopeBoth      ApplicationScope = "both"
	ScopeCoverOnly ApplicationScope = "cover_only"
	ScopeInnerOnly ApplicationScope = "inner_only"
)

// Allows reports whether a selection in section s is permitted.
func (a ApplicationScope) Allows(s Section) bool {
	switch a {
	case ScopeCoverOnly:
		return s == SectionCover
	case ScopeInnerOnly:
		return s == SectionInner
	default:
		return true
	}
}

// ExtraVariant is one priced option of an extra, e.g. "Matte" or "Gloss".
type ExtraVariant struct {
	ID       int64           `json:"id"`
	Name     string          `json:"variant_name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// Extra is a finishing service priced independently of paper and clicks.
type Extra struct {
	ID                  int64            `json:"id" db:"id"`
	Name                string           `json:"name" db:"name"`
	PricingType         PricingType      `json:"pricing_type" db:"pricing_type"`
	InsideOutsideSame   bool             `json:"inside_outside_same" db:"inside_outside_same"`
	SupportsDoubleSided bool             `json:"supports_double_sided" db:"supports_double_sided"`
	ApplyToPrintSheet   bool             `json:"apply_to_print_sheet" db:"apply_to_print_sheet"`
	Scope               ApplicationScope `json:"booklet_application_scope" db:"scope"`
	SetupCost           decimal.Decimal  `json:"setup_cost" db:"setup_cost"`
	SetupCostCurrency   string           `json:"setup_cost_currency" db:"setup_cost_currency"`
	Variants            []ExtraVariant   `json:"variants" db:"variants"`
}

// Variant returns the variant with the given id.
func (e *Extra) Variant(id int64) (*ExtraVariant, bool) {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i], true
		}
	}
	return nil, false
}

// Section is the part of a job a selected extra is attached to.
type Section string

const (
	SectionNormal Section = "normal"
	SectionCover  Section = "cover"
	SectionInner  Section = "inner"
)

// SelectedExtra binds a chosen extra variant to a job section.
type SelectedExtra struct {
	ExtraID       int64   `json:"extra_id"`
	VariantID     int64   `json:"variant_id"`
	IsDoubleSided bool    `json:"is_double_sided"`
	Section       Section `json:"section"`
}

// ExtraCostResult is the priced outcome of one selected extra. Costs are EUR.
type ExtraCostResult struct {
	ExtraID      int64           `json:"extra_id"`
	VariantID    int64           `json:"variant_id"`
	ExtraName    string          `json:"extra_name"`
	VariantName  string          `json:"variant_name"`
	Section      Section         `json:"section"`
	PricingType  PricingType     `json:"pricing_type"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Units        int             `json:"units"`
	UnitType     string          `json:"unit_type"`
	EdgeLength   float64         `json:"edge_length,omitempty"`
	SetupCost    decimal.Decimal `json:"setup_cost"`
	Cost         decimal.Decimal `json:"cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Combined     bool            `json:"combined,omitempty"`
	Estimated    bool            `json:"estimated,omitempty"`
}

// Clone returns a copy that shares no slices with e.
func (e Extra) Clone() Extra {
	e.Variants = append([]ExtraVariant(nil), e.Variants...)
	return e
}
