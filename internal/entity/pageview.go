package entity

// Column names shared by the dump, the blacklist and the ranked output.
const (
	ColDomainCode        = "domain_code"
	ColPageTitle         = "page_title"
	ColCountViews        = "count_views"
	ColTotalResponseSize = "total_response_size"
	ColRank              = "rank"
)

// PageviewColumns are the positional names of a dump line. A blacklist line
// only has the first two.
var PageviewColumns = []string{ColDomainCode, ColPageTitle, ColCountViews, ColTotalResponseSize}

// PageviewRow is one (domain, page) pair observed in an hourly dump.
type PageviewRow struct {
	DomainCode        string `json:"domain_code"`
	PageTitle         string `json:"page_title"`
	CountViews        int64  `json:"count_views"`
	TotalResponseSize int64  `json:"total_response_size"`
}

// BlacklistRow excludes a (domain, page) pair from every hour.
type BlacklistRow struct {
	DomainCode string `json:"domain_code"`
	PageTitle  string `json:"page_title"`
}

// RankedRow is a PageviewRow with its 1-based position inside its domain.
// Rows with equal CountViews get distinct ranks.
type RankedRow struct {
	PageviewRow
	Rank int64 `json:"rank"`
}
