package workspace

// Sort values accepted by the workspace collection. A leading "-" sorts descending.
const (
	SortNameAsc       = "name"
	SortNameDesc      = "-name"
	SortModifiedAsc   = "modified"
	SortModifiedDesc  = "-modified"
	SortTotalAppsAsc  = "totalApps"
	SortTotalAppsDesc = "-totalApps"

	DefaultSort     = SortModifiedDesc
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// SortValues lists every accepted sort value.
var SortValues = []string{
	SortNameAsc, SortNameDesc,
	SortModifiedAsc, SortModifiedDesc,
	SortTotalAppsAsc, SortTotalAppsDesc,
}

// ListQuery selects one page of the workspace collection.
type ListQuery struct {
	Page     int    `json:"page" query:"page"`
	PageSize int    `json:"page_size" query:"page_size"`
	Sort     string `json:"sort" query:"sort"`
}

// WithDefaults fills unset fields.
func (q ListQuery) WithDefaults() ListQuery {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	return q
}

// Offset is the number of records skipped before this page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// ListPage is one resolved page of the workspace collection.
type ListPage struct {
	Results  []Record `json:"results"`
	Total    int64    `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Sort     string   `json:"sort"`
}

// ListFilter narrows the repository listing to what one caller may see.
type ListFilter struct {
	Caller        string
	AllWorkspaces bool
	Query         ListQuery
	RecentApps    int
}
