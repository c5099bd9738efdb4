package usecase

import (
	"fmt"

	"github.com/user/pageview-ranker/internal/dataset"
	"github.com/user/pageview-ranker/internal/entity"
)

// Ranker removes blacklisted pages and keeps the most viewed pages of each domain.
type Ranker struct {
	topN        int
	parallelism int
	// tieBreak orders equal view counts by page title. Without it the order
	// among ties is whatever order the dump delivered, which is not a stable
	// property of the source.
	tieBreak bool
}

func NewRanker(topN, parallelism int, deterministicTieBreak bool) *Ranker {
	return &Ranker{topN: topN, parallelism: parallelism, tieBreak: deterministicTieBreak}
}

// Process filters pageviews by blacklist and ranks what is left.
func (r *Ranker) Process(pageviews, blacklist *dataset.Table) (*dataset.Table, error) {
	filtered, err := r.Filter(pageviews, blacklist)
	if err != nil {
		return nil, err
	}
	return r.Rank(filtered)
}

// Filter drops every row whose (domain_code, page_title) is in blacklist.
func (r *Ranker) Filter(pageviews, blacklist *dataset.Table) (*dataset.Table, error) {
	out, err := pageviews.LeftAntiJoin(blacklist, entity.ColDomainCode, entity.ColPageTitle)
	if err != nil {
		return nil, fmt.Errorf("filter blacklist: %w", err)
	}
	return out, nil
}

// Rank numbers rows per domain by descending count_views and keeps ranks 1..topN.
func (r *Ranker) Rank(filtered *dataset.Table) (*dataset.Table, error) {
	w := dataset.Window{
		PartitionBy: entity.ColDomainCode,
		OrderBy:     entity.ColCountViews,
		Descending:  true,
		Parallelism: r.parallelism,
	}
	if r.tieBreak {
		w.ThenBy = entity.ColPageTitle
	}

	ranked, err := filtered.WithRowNumber(entity.ColRank, w)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	topN := int64(r.topN)
	return ranked.Filter(func(row dataset.Row) bool {
		rank, _ := row.Int(entity.ColRank)
		return rank <= topN
	}), nil
}

// ToRankedRows converts a ranked table into output rows. Null counts become 0.
func ToRankedRows(t *dataset.Table) ([]entity.RankedRow, error) {
	for _, name := range []string{entity.ColCountViews, entity.ColTotalResponseSize, entity.ColRank} {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, name)
		}
		// A column with no values at all is inferred as text.
		if c.Kind != dataset.Int && t.Len() > 0 && hasValues(t, name) {
			return nil, fmt.Errorf("column %s is %s, want int", name, c.Kind)
		}
	}

	rows := make([]entity.RankedRow, 0, t.Len())
	for _, r := range t.All() {
		views, _ := r.Int(entity.ColCountViews)
		size, _ := r.Int(entity.ColTotalResponseSize)
		rank, _ := r.Int(entity.ColRank)
		rows = append(rows, entity.RankedRow{
			PageviewRow: entity.PageviewRow{
				DomainCode:        r.Text(entity.ColDomainCode),
				PageTitle:         r.Text(entity.ColPageTitle),
				CountViews:        views,
				TotalResponseSize: size,
			},
			Rank: rank,
		})
	}
	return rows, nil
}

func hasValues(t *dataset.Table, col string) bool {
	for _, r := range t.All() {
		if !r.IsNull(col) {
			return true
		}
	}
	return false
}
