package services

import (
	"errors"
	"fmt"

	"credit-dashboard/models"
)

// ErrUnknownView is returned for a view name missing from the registry.
var ErrUnknownView = errors.New("unknown view")

// ViewSpec maps a logical chart name to the column it buckets.
type ViewSpec struct {
	Name   string        `json:"name"`
	Column string        `json:"column"`
	Title  string        `json:"title"`
	Cap    models.Number `json:"cap"`
	Bins   int           `json:"bins,omitempty"`
	// Discrete columns get one bucket per integer value.
	Discrete bool `json:"discrete"`
}

// ViewCaps are the per-chart outlier caps and the default bucket count.
type ViewCaps struct {
	InterestRate    float64
	CreditInquiries float64
	CreditHistory   float64
	Bins            int
}

// DefaultCaps match the tabbed dashboard.
var DefaultCaps = ViewCaps{InterestRate: 50, CreditInquiries: 20, CreditHistory: 100, Bins: defaultBins}

// DefaultViews describes every chart shown by the dashboards.
func DefaultViews(caps ViewCaps) []ViewSpec {
	capOf := func(v float64) models.Number {
		if v <= 0 {
			return models.Missing
		}
		return models.Num(v)
	}
	return []ViewSpec{
		{Name: "income", Column: models.ColAnnualIncome, Title: "Annual income", Bins: caps.Bins},
		{Name: "age", Column: models.ColAge, Title: "Age", Discrete: true},
		{Name: "bank_accounts", Column: models.ColNumBankAccounts, Title: "Bank accounts", Discrete: true},
		{Name: "credit_cards", Column: models.ColNumCreditCard, Title: "Credit cards", Discrete: true},
		{Name: "interest_rate", Column: models.ColInterestRate, Title: "Interest rate", Cap: capOf(caps.InterestRate), Discrete: true},
		{Name: "credit_inquiries", Column: models.ColNumCreditInquiries, Title: "Credit inquiries", Cap: capOf(caps.CreditInquiries), Discrete: true},
		{Name: "credit_history", Column: models.ColCreditHistoryAge, Title: "Credit history (years)", Cap: capOf(caps.CreditHistory), Bins: 20},
		{Name: "debt", Column: models.ColOutstandingDebt, Title: "Outstanding debt", Bins: caps.Bins},
		{Name: "credit_utilization", Column: models.ColCreditUtilization, Title: "Credit utilization ratio", Bins: caps.Bins},
		{Name: "investment", Column: models.ColAmountInvested, Title: "Monthly investment", Bins: caps.Bins},
	}
}

// ViewRegistry resolves view names in registration order.
type ViewRegistry struct {
	specs  []ViewSpec
	byName map[string]int
}

// NewViewRegistry rejects duplicate or blank names.
func NewViewRegistry(specs ...ViewSpec) (*ViewRegistry, error) {
	r := &ViewRegistry{byName: make(map[string]int, len(specs))}
	for _, s := range specs {
		if s.Name == "" || s.Column == "" {
			return nil, fmt.Errorf("services: view needs a name and a column: %+v", s)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("services: duplicate view %q", s.Name)
		}
		s.Column = models.CanonicalColumn(s.Column)
		r.byName[s.Name] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Lookup returns the spec for name.
func (r *ViewRegistry) Lookup(name string) (ViewSpec, error) {
	i, ok := r.byName[name]
	if !ok {
		return ViewSpec{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return r.specs[i], nil
}

// Specs returns all views in order.
func (r *ViewRegistry) Specs() []ViewSpec {
	out := make([]ViewSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Histogram aggregates the named view.
func (r *ViewRegistry) Histogram(v View, name string) (models.HistogramSpec, error) {
	spec, err := r.Lookup(name)
	if err != nil {
		return models.HistogramSpec{}, err
	}
	return Histogram(v, spec), nil
}
