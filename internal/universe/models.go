package universe

// Security is one constituent of the index universe, joined with its ESG score.
type Security struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Sector       string  `json:"sector"`
	SubIndustry  string  `json:"sub_industry"`
	Headquarters string  `json:"headquarters"`
	DateAdded    string  `json:"date_added,omitempty"`
	CIK          string  `json:"cik,omitempty"`
	Founded      string  `json:"founded,omitempty"`
	ESGScore     float64 `json:"esg_score"`
}

// FilterParams restricts the universe to an investable subset.
type FilterParams struct {
	// ExcludeSubIndustries removes every security whose GICS sub-industry
	// matches one of these labels exactly.
	ExcludeSubIndustries []string
	// MinESGScore keeps only securities scoring strictly above this value.
	MinESGScore float64
}
