package extras

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func assertDecimal(t *testing.T, want float64, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "%s: want %v, got %s", msg, want, got)
}

func extra(id int64, pt model.PricingType, price float64) model.Extra {
	return model.Extra{
		ID:                id,
		Name:              string(pt),
		PricingType:       pt,
		SetupCost:         decimal.Zero,
		SetupCostCurrency: "EUR",
		Variants: []model.ExtraVariant{
			{ID: id * 10, Name: "Standard", Price: d(price), Currency: "EUR"},
		},
	}
}

func pick(e model.Extra, section model.Section) model.SelectedExtra {
	return model.SelectedExtra{ExtraID: e.ID, VariantID: e.Variants[0].ID, Section: section}
}

func flatJob(qty, pages int) Job {
	return Job{Job: model.Job{FinalWidth: 85, FinalHeight: 55, Quantity: qty, TotalPages: pages}}
}

func bookletJob(qty, pages int, cover bool) Job {
	return Job{Job: model.Job{
		FinalWidth: 148, FinalHeight: 210, Quantity: qty, TotalPages: pages,
		IsBookletMode: true, HasCover: cover, BindingEdge: model.BindingLong,
	}}
}

func TestPerPage_NormalMode(t *testing.T) {
	e := extra(1, model.PerPage, 0.01)
	sum := New(nil).Evaluate(flatJob(1000, 1), []model.SelectedExtra{pick(e, "")}, []model.Extra{e})

	require.Len(t, sum.Items, 1)
	item := sum.Items[0]
	assert.Equal(t, 1000, item.Units)
	assertDecimal(t, 10, item.Cost, "cost")
	assertDecimal(t, 10, sum.NormalTotal, "normal total")
	assert.Equal(t, model.SectionNormal, item.Section)
}

func TestPerPage_FlatJobWithoutPagesCountsOne(t *testing.T) {
	e := extra(1, model.PerPage, 0.01)
	sum := New(nil).Evaluate(flatJob(1000, 0), []model.SelectedExtra{pick(e, "")}, []model.Extra{e})

	require.Len(t, sum.Items, 1)
	assert.Equal(t, 1000, sum.Items[0].Units)
}

func TestSetupCostAddedOncePerSelection(t *testing.T) {
	e := extra(1, model.PerPage, 0.01)
	e.SetupCost = d(5)
	sum := New(nil).Evaluate(flatJob(1000, 1), []model.SelectedExtra{pick(e, "")}, []model.Extra{e})

	require.Len(t, sum.Items, 1)
	assertDecimal(t, 10, sum.Items[0].Cost, "cost")
	assertDecimal(t, 15, sum.Items[0].TotalCost, "total")
}

func TestPerPage_BookletSections(t *testing.T) {
	e := extra(1, model.PerPage, 0.02)
	job := bookletJob(50, 16, true)
	sels := []model.SelectedExtra{pick(e, model.SectionCover), pick(e, model.SectionInner)}

	sum := New(nil).Evaluate(job, sels, []model.Extra{e})

	require.Len(t, sum.Items, 2)
	assert.Equal(t, 50*4, sum.Items[0].Units, "cover pages")
	assert.Equal(t, 50*12, sum.Items[1].Units, "inner pages")
	assertDecimal(t, 4, sum.CoverTotal, "cover total")
	assertDecimal(t, 12, sum.InnerTotal, "inner total")
	assertDecimal(t, 16, sum.Total, "total")
}

func TestPerPage_InnerWithoutCoverCountsAllPages(t *testing.T) {
	e := extra(1, model.PerPage, 0.02)
	sum := New(nil).Evaluate(bookletJob(10, 16, false), []model.SelectedExtra{pick(e, model.SectionInner)}, []model.Extra{e})

	require.Len(t, sum.Items, 1)
	assert.Equal(t, 160, sum.Items[0].Units)
}

func TestInsideOutsideSame_EvaluatedOnceOverWholeBooklet(t *testing.T) {
	e := extra(1, model.PerPage, 0.02)
	e.InsideOutsideSame = true
	job := bookletJob(50, 16, true)

	for _, section := range []model.Section{model.SectionCover, model.SectionInner} {
		sum := New(nil).Evaluate(job, []model.SelectedExtra{pick(e, section)}, []model.Extra{e})
		require.Len(t, sum.Items, 1)
		assert.Equal(t, 50*16, sum.Items[0].Units, "section %s", section)
		assert.True(t, sum.Items[0].Combined)
	}

	both := []model.SelectedExtra{pick(e, model.SectionCover), pick(e, model.SectionInner)}
	sum := New(nil).Evaluate(job, both, []model.Extra{e})
	require.Len(t, sum.Items, 1, "same extra in both sections is one line")
	assertDecimal(t, 16, sum.CombinedTotal, "combined total")
	assert.True(t, sum.CoverTotal.IsZero())
	assert.True(t, sum.InnerTotal.IsZero())
}

func TestPerBooklet(t *testing.T) {
	e := extra(1, model.PerBooklet, 0.5)
	sum := New(nil).Evaluate(bookletJob(40, 8, true), []model.SelectedExtra{pick(e, model.SectionInner)}, []model.Extra{e})

	require.Len(t, sum.Items, 1)
	assert.Equal(t, 40, sum.Items[0].Units)
	assert.Equal(t, "booklets", sum.Items[0].UnitType)
	assertDecimal(t, 20, sum.Items[0].Cost, "cost")
}

func TestDoubleSidedDoublesBasePrice(t *testing.T) {
	e := extra(1, model.PerBooklet, 0.5)
	sel := pick(e, "")
	sel.IsDoubleSided = true

	sum := New(nil).Evaluate(flatJob(10, 1), []model.SelectedExtra{sel}, []model.Extra{e})
	assertDecimal(t, 0.5, sum.Items[0].PricePerUnit, "extra without double-sided support")

	e.SupportsDoubleSided = true
	sum = New(nil).Evaluate(flatJob(10, 1), []model.SelectedExtra{sel}, []model.Extra{e})
	assertDecimal(t, 1, sum.Items[0].PricePerUnit, "double-sided price")
	assertDecimal(t, 10, sum.Items[0].Cost, "double-sided cost")
}

func TestPerLength_BoundEdge(t *testing.T) {
	e := extra(1, model.PerLength, 0.1)

	long := bookletJob(100, 8, false)
	sum := New(nil).Evaluate(long, []model.SelectedExtra{pick(e, model.SectionInner)}, []model.Extra{e})
	require.Len(t, sum.Items, 1)
	assert.InDelta(t, 14.8, sum.Items[0].EdgeLength, 1e-9, "long edge uses final width")
	assert.Equal(t, 100, sum.Items[0].Units)
	assertDecimal(t, 148, sum.Items[0].Cost, "cost")

	short := long
	short.Job.BindingEdge = model.BindingShort
	sum = New(nil).Evaluate(short, []model.SelectedExtra{pick(e, model.SectionInner)}, []model.Extra{e})
	assert.InDelta(t, 21.0, sum.Items[0].EdgeLength, 1e-9, "short edge uses final height")
}

func TestPerLength_PrintSheetUsesComputedSheets(t *testing.T) {
	e := extra(1, model.PerLength, 0.01)
	e.ApplyToPrintSheet = true
	job := bookletJob(100, 12, true)
	job.Sheets.Cover = &model.CoverResult{CalculationResult: model.CalculationResult{PressSheetsNeeded: 50}}
	job.Sheets.Inner = &model.InnerResult{CalculationResult: model.CalculationResult{PressSheetsNeeded: 100}}

	sum := New(nil).Evaluate(job, []model.SelectedExtra{pick(e, model.SectionCover)}, []model.Extra{e})
	require.Len(t, sum.Items, 1)
	item := sum.Items[0]
	assert.Equal(t, 50, item.Units)
	assert.InDelta(t, 45.0, item.EdgeLength, 1e-9)
	assert.False(t, item.Estimated)
	assertDecimal(t, 22.5, item.Cost, "50 sheets × 45cm × 0.01")

	e.InsideOutsideSame = true
	sum = New(nil).Evaluate(job, []model.SelectedExtra{pick(e, model.SectionCover)}, []model.Extra{e})
	assert.Equal(t, 150, sum.Items[0].Units, "combined extras use cover and inner sheets")
}

// Without prior results the sheet count is estimated. This path only runs
// when extras are priced before the sections themselves.
func TestPerLength_PrintSheetFallback(t *testing.T) {
	e := extra(1, model.PerLength, 0.01)
	e.ApplyToPrintSheet = true
	job := bookletJob(100, 12, true)

	sum := New(nil).Evaluate(job, []model.SelectedExtra{
		pick(e, model.SectionCover),
		pick(e, model.SectionInner),
	}, []model.Extra{e})

	require.Len(t, sum.Items, 2)
	assert.Equal(t, 100, sum.Items[0].Units, "one sheet per booklet for the cover")
	assert.True(t, sum.Items[0].Estimated)
	assert.Equal(t, 200, sum.Items[1].Units, "ceil(8/4) sheets per booklet for the inner pages")
	assert.True(t, sum.Items[1].Estimated)

	flat := flatJob(300, 1)
	sum = New(nil).Evaluate(flat, []model.SelectedExtra{pick(e, "")}, []model.Extra{e})
	assert.Equal(t, 300, sum.Items[0].Units)
	assert.True(t, sum.Items[0].Estimated)
}

func TestPerForm_Divisor(t *testing.T) {
	e := extra(1, model.PerForm, 1)
	tests := []struct {
		gsm       float64
		wantForms int
	}{
		{170, 3},
		{250, 3},
		{80, 2},
		{169.9, 2},
	}
	for _, tt := range tests {
		job := flatJob(1, 32)
		job.PaperGSM = tt.gsm
		sum := New(nil).Evaluate(job, []model.SelectedExtra{pick(e, "")}, []model.Extra{e})
		require.Len(t, sum.Items, 1)
		assert.Equal(t, tt.wantForms, sum.Items[0].Units, "gsm %v", tt.gsm)
	}
}

func TestPerForm_CombinedUsesInnerPaper(t *testing.T) {
	e := extra(1, model.PerForm, 1)
	e.InsideOutsideSame = true
	job := bookletJob(10, 32, true)
	job.CoverGSM = 300
	job.InnerGSM = 80

	sum := New(nil).Evaluate(job, []model.SelectedExtra{pick(e, model.SectionCover)}, []model.Extra{e})
	require.Len(t, sum.Items, 1)
	// 32 pages at 16 per form = 2 forms × 10 booklets
	assert.Equal(t, 20, sum.Items[0].Units)
}

func TestPerForm_GSMFromResults(t *testing.T) {
	e := extra(1, model.PerForm, 1)
	job := bookletJob(1, 12, true)
	job.Sheets.Cover = &model.CoverResult{CalculationResult: model.CalculationResult{PaperGSM: 300}}

	sum := New(nil).Evaluate(job, []model.SelectedExtra{pick(e, model.SectionCover)}, []model.Extra{e})
	require.Len(t, sum.Items, 1)
	assert.Equal(t, 1, sum.Items[0].Units, "4 cover pages fit one form")
}

func TestMissingReferencesFailOnlyThatSelection(t *testing.T) {
	e := extra(1, model.PerBooklet, 1)
	sels := []model.SelectedExtra{
		{ExtraID: 99, VariantID: 1},
		{ExtraID: 1, VariantID: 12345},
		pick(e, ""),
	}
	sum := New(nil).Evaluate(flatJob(5, 1), sels, []model.Extra{e})

	require.Len(t, sum.Errors, 2)
	for _, err := range sum.Errors {
		assert.ErrorIs(t, err, ErrNotFound)
	}
	require.Len(t, sum.Items, 1)
	assertDecimal(t, 5, sum.Total, "remaining selection still priced")
}

func TestUnknownPricingTypeIsSkipped(t *testing.T) {
	e := extra(1, model.PricingType("per_hour"), 1)
	sum := New(nil).Evaluate(flatJob(5, 1), []model.SelectedExtra{pick(e, "")}, []model.Extra{e})

	assert.Empty(t, sum.Items)
	assert.Empty(t, sum.Errors)
	require.Len(t, sum.Skipped, 1)
	assert.True(t, sum.Total.IsZero())
}

func TestScopeMismatch(t *testing.T) {
	e := extra(1, model.PerBooklet, 1)
	e.Scope = model.ScopeCoverOnly
	sels := []model.SelectedExtra{pick(e, model.SectionInner), pick(e, model.SectionCover)}

	sum := New(nil).Evaluate(bookletJob(5, 8, true), sels, []model.Extra{e})

	require.Len(t, sum.Errors, 1)
	assert.ErrorIs(t, sum.Errors[0], ErrScopeMismatch)
	require.Len(t, sum.Items, 1)
	assert.Equal(t, model.SectionCover, sum.Items[0].Section)
}

func TestCoverSelectionWithoutCoverPricesInnerPages(t *testing.T) {
	e := extra(1, model.PerPage, 0.02)
	sum := New(nil).Evaluate(bookletJob(10, 16, false), []model.SelectedExtra{pick(e, model.SectionCover)}, []model.Extra{e})

	require.Len(t, sum.Items, 1)
	assert.Equal(t, model.SectionInner, sum.Items[0].Section)
	assert.Equal(t, 160, sum.Items[0].Units, "all pages are inner without a cover")
	assert.True(t, sum.CoverTotal.IsZero())

	coverOnly := extra(2, model.PerBooklet, 1)
	coverOnly.Scope = model.ScopeCoverOnly
	sum = New(nil).Evaluate(bookletJob(10, 16, false), []model.SelectedExtra{pick(coverOnly, model.SectionCover)}, []model.Extra{coverOnly})
	require.Len(t, sum.Errors, 1)
	assert.ErrorIs(t, sum.Errors[0], ErrScopeMismatch)
}

func TestScopeIgnoredForFlatJobs(t *testing.T) {
	e := extra(1, model.PerBooklet, 1)
	e.Scope = model.ScopeCoverOnly
	sum := New(nil).Evaluate(flatJob(5, 1), []model.SelectedExtra{pick(e, "")}, []model.Extra{e})

	assert.Empty(t, sum.Errors)
	assert.Len(t, sum.Items, 1)
}

func TestPricesConvertedToEUR(t *testing.T) {
	e := extra(1, model.PerBooklet, 1)
	e.Variants[0].Currency = "USD"
	e.SetupCost = d(100)
	e.SetupCostCurrency = "TRY"

	sum := New(currency.FallbackRates().RateOf).Evaluate(flatJob(10, 1), []model.SelectedExtra{pick(e, "")}, []model.Extra{e})
	require.Len(t, sum.Items, 1)
	assertDecimal(t, 0.95, sum.Items[0].PricePerUnit, "USD price")
	assertDecimal(t, 2.8, sum.Items[0].SetupCost, "TRY setup")
	assertDecimal(t, 12.3, sum.Items[0].TotalCost, "total")
}
