package meta

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// Param is one parameter of a stored query.
type Param struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

func (p Param) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}

// StoredQuery is one queryable API of the service, essentially a named
// stored procedure.
type StoredQuery struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Abstract          string  `json:"abstract"`
	Params            []Param `json:"params"`
	ReturnFeatureType string  `json:"return_feature_type"`
}

func (q StoredQuery) String() string {
	return fmt.Sprintf("[%s]: %s", q.ID, q.Title)
}

// matches reports whether the id, title or abstract matches the query.
func (q StoredQuery) matches(query *regexp.Regexp) bool {
	return query.MatchString(q.ID) || query.MatchString(q.Title) || query.MatchString(q.Abstract)
}

// StoredQueries lists the queryable APIs, indexed by id.
type StoredQueries struct {
	Queries map[string]StoredQuery `json:"queries"`
}

// GetStoredQueries fetches the stored query catalog: the query list joined
// with the separately served descriptions.
func GetStoredQueries(ctx context.Context, client *fmi.Client) (*StoredQueries, error) {
	listDoc, err := client.QueryWFS(ctx, url.Values{"request": {"listStoredQueries"}})
	if err != nil {
		return nil, err
	}
	descDoc, err := client.QueryWFS(ctx, url.Values{"request": {"describeStoredQueries"}})
	if err != nil {
		return nil, err
	}
	return ParseStoredQueries(listDoc, descDoc)
}

// FindByID returns the first stored query whose id contains the given
// fragment, or nil when none does.
func (sq *StoredQueries) FindByID(id string) *StoredQuery {
	for qid, q := range sq.Queries {
		if strings.Contains(qid, id) {
			return &q
		}
	}
	return nil
}

// FindMatches returns the stored queries whose id, title or abstract
// matches the case-insensitive pattern.
func (sq *StoredQueries) FindMatches(pattern string) ([]StoredQuery, error) {
	query, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	var matches []StoredQuery
	for _, q := range sq.Queries {
		if q.matches(query) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

// ParseStoredQueries joins a listStoredQueries document with its
// describeStoredQueries counterpart. Every listed query must have a
// description; a missing one indicates catalog drift.
func ParseStoredQueries(listDoc, descDoc []byte) (*StoredQueries, error) {
	var list storedQueryList
	if err := xml.Unmarshal(listDoc, &list); err != nil {
		return nil, fmt.Errorf("failed to decode stored query list: %w", err)
	}
	var descs storedQueryDescriptions
	if err := xml.Unmarshal(descDoc, &descs); err != nil {
		return nil, fmt.Errorf("failed to decode stored query descriptions: %w", err)
	}

	descByID := make(map[string]storedQueryDescription, len(descs.Descriptions))
	for _, d := range descs.Descriptions {
		descByID[d.ID] = d
	}

	queries := make(map[string]StoredQuery, len(list.Queries))
	for _, q := range list.Queries {
		desc, ok := descByID[q.ID]
		if !ok {
			return nil, fmt.Errorf("stored query description missing for %s", q.ID)
		}
		params := make([]Param, 0, len(desc.Parameters))
		for _, p := range desc.Parameters {
			params = append(params, Param{
				Name:     p.Name,
				Type:     p.Type,
				Title:    strings.TrimSpace(p.Title),
				Abstract: strings.TrimSpace(p.Abstract),
			})
		}
		queries[q.ID] = StoredQuery{
			ID:                q.ID,
			Title:             strings.TrimSpace(q.Title),
			Abstract:          strings.TrimSpace(desc.Abstract),
			Params:            params,
			ReturnFeatureType: strings.TrimSpace(q.ReturnFeatureType),
		}
	}
	return &StoredQueries{Queries: queries}, nil
}

type storedQueryList struct {
	XMLName xml.Name `xml:"ListStoredQueriesResponse"`
	Queries []struct {
		ID                string `xml:"id,attr"`
		Title             string `xml:"Title"`
		ReturnFeatureType string `xml:"ReturnFeatureType"`
	} `xml:"StoredQuery"`
}

type storedQueryDescriptions struct {
	XMLName      xml.Name                 `xml:"DescribeStoredQueriesResponse"`
	Descriptions []storedQueryDescription `xml:"StoredQueryDescription"`
}

type storedQueryDescription struct {
	ID         string `xml:"id,attr"`
	Abstract   string `xml:"Abstract"`
	Parameters []struct {
		Name     string `xml:"name,attr"`
		Type     string `xml:"type,attr"`
		Title    string `xml:"Title"`
		Abstract string `xml:"Abstract"`
	} `xml:"Parameter"`
}
