package analytics

import (
	"fmt"
	"sort"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/parse"
)

const rankSize = 5

// ProductAnalyzer folds detailed line items into per-product statistics:
// the best sellers by volume and the weakest products by margin. Products
// below the volume floor are excluded from the margin ranking so a single
// unlucky sale cannot top the list.
type ProductAnalyzer struct {
	minVolume float64
}

func NewProductAnalyzer(minVolume int) *ProductAnalyzer {
	if minVolume <= 0 {
		minVolume = 1
	}
	return &ProductAnalyzer{minVolume: float64(minVolume)}
}

type productAcc struct {
	stat    domain.ProductStat
	cost    float64
	hasCost bool
}

// Analyze builds the product ranking response from parsed line items.
// Returns reduce a product's quantity and revenue; corrections adjust
// revenue only.
func (a *ProductAnalyzer) Analyze(items []*parse.LineItem) *domain.TopProductsResponse {
	resp := &domain.TopProductsResponse{}
	byName := make(map[string]*productAcc)
	unnamed := 0

	for _, it := range items {
		switch it.Operation {
		case parse.OperationIncome:
			resp.TotalDiscount += it.Discount
			if it.ListedTotal > 0 {
				if bonus := it.ListedTotal - it.Discount - it.Amount; bonus > 0 {
					resp.TotalBonus += bonus
				}
			}
		}

		if it.Name == "" {
			unnamed++
			continue
		}

		acc, ok := byName[it.Name]
		if !ok {
			acc = &productAcc{stat: domain.ProductStat{Name: it.Name}}
			byName[it.Name] = acc
		}

		switch it.Operation {
		case parse.OperationReturn:
			acc.stat.Quantity -= it.Quantity
			acc.stat.Revenue -= it.Amount
		case parse.OperationCorrection:
			acc.stat.Revenue += it.Amount
		default:
			acc.stat.Quantity += it.Quantity
			acc.stat.Revenue += it.Amount
		}
		if it.HasCost {
			acc.hasCost = true
			acc.cost += it.Cost
		}
	}

	if unnamed > 0 {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("%d line items without a product name were excluded from rankings", unnamed))
	}

	stats := make([]domain.ProductStat, 0, len(byName))
	for _, acc := range byName {
		s := acc.stat
		if acc.hasCost {
			s.Cost = acc.cost
			if s.Revenue != 0 {
				margin := (s.Revenue - s.Cost) / s.Revenue
				s.Margin = &margin
			}
		}
		stats = append(stats, s)
	}

	resp.TopBySales = topBySales(stats)
	resp.WorstByMargin = a.worstByMargin(stats)
	return resp
}

func topBySales(stats []domain.ProductStat) []domain.ProductStat {
	ranked := make([]domain.ProductStat, len(stats))
	copy(ranked, stats)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > rankSize {
		ranked = ranked[:rankSize]
	}
	return ranked
}

func (a *ProductAnalyzer) worstByMargin(stats []domain.ProductStat) []domain.ProductStat {
	eligible := make([]domain.ProductStat, 0, len(stats))
	for _, s := range stats {
		if s.Margin == nil || s.Quantity < a.minVolume {
			continue
		}
		eligible = append(eligible, s)
	}
	sort.Slice(eligible, func(i, j int) bool {
		if *eligible[i].Margin != *eligible[j].Margin {
			return *eligible[i].Margin < *eligible[j].Margin
		}
		return eligible[i].Name < eligible[j].Name
	})
	if len(eligible) > rankSize {
		eligible = eligible[:rankSize]
	}
	return eligible
}
