package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"esg-folio/internal/universe"
)

// Engine is an in-memory full-text index over the screened universe.
// It is rebuilt whenever the universe is reloaded.
type Engine struct {
	index bleve.Index
}

// Result is one search hit with its combined ranking score.
type Result struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Sector      string  `json:"sector"`
	SubIndustry string  `json:"sub_industry"`
	ESGScore    float64 `json:"esg_score"`
	Score       float64 `json:"score"`
}

type document struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Sector      string  `json:"sector"`
	SubIndustry string  `json:"sub_industry"`
	ESGScore    float64 `json:"esg_score"`
}

// NewEngine indexes the given securities into a fresh in-memory index.
func NewEngine(securities []universe.Security) (*Engine, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("search: create index: %w", err)
	}

	batch := index.NewBatch()
	for _, s := range securities {
		doc := document{
			Symbol:      strings.ToLower(s.Symbol),
			Name:        s.Name,
			Sector:      s.Sector,
			SubIndustry: s.SubIndustry,
			ESGScore:    s.ESGScore,
		}
		if err := batch.Index(s.Symbol, doc); err != nil {
			return nil, fmt.Errorf("search: index %s: %w", s.Symbol, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("search: batch: %w", err)
	}
	return &Engine{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.Index = true
	docMapping.AddFieldMappingsAt("symbol", textField)
	docMapping.AddFieldMappingsAt("name", textField)
	docMapping.AddFieldMappingsAt("sector", textField)
	docMapping.AddFieldMappingsAt("sub_industry", textField)

	scoreField := bleve.NewNumericFieldMapping()
	scoreField.Store = true
	scoreField.Index = true
	docMapping.AddFieldMappingsAt("esg_score", scoreField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Search ranks securities against the query with match-type boosting:
// exact ticker matches first, then ticker prefixes, then company-name and
// sector matches, with fuzzy wildcard fallbacks.
func (e *Engine) Search(query string, limit int) ([]Result, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}

	exact := bleve.NewTermQuery(q)
	exact.SetField("symbol")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(q)
	prefix.SetField("symbol")
	prefix.SetBoost(5.0)

	nameMatch := bleve.NewMatchQuery(query)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)

	wildSymbol := bleve.NewWildcardQuery("*" + q + "*")
	wildSymbol.SetField("symbol")
	wildSymbol.SetBoost(2.0)

	wildName := bleve.NewWildcardQuery("*" + q + "*")
	wildName.SetField("name")
	wildName.SetBoost(1.5)

	sectorMatch := bleve.NewMatchQuery(query)
	sectorMatch.SetField("sector")
	sectorMatch.SetBoost(1.0)

	industryMatch := bleve.NewMatchQuery(query)
	industryMatch.SetField("sub_industry")
	industryMatch.SetBoost(1.0)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(
		exact, prefix, nameMatch, wildSymbol, wildName, sectorMatch, industryMatch,
	))
	req.Fields = []string{"name", "sector", "sub_industry", "esg_score"}
	req.Size = limit

	res, err := e.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		esg := fieldFloat(hit.Fields, "esg_score")
		results = append(results, Result{
			Symbol:      hit.ID,
			Name:        fieldString(hit.Fields, "name"),
			Sector:      fieldString(hit.Fields, "sector"),
			SubIndustry: fieldString(hit.Fields, "sub_industry"),
			ESGScore:    esg,
			// Text relevance leads, ESG score breaks ties.
			Score: hit.Score*0.7 + esg/100*0.3,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// Close releases the index.
func (e *Engine) Close() error {
	return e.index.Close()
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func fieldFloat(fields map[string]interface{}, key string) float64 {
	if v, ok := fields[key].(float64); ok {
		return v
	}
	return 0
}
