// Package meta provides the metadata catalogs of the FMI open data API:
// observable properties and the stored queries themselves.
package meta

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// ObservableProperty describes a quantity that is part of a measurement or
// a forecast. Most are self-explanatory; the ww codes (a summary code for
// the present weather) are documented in the WMO Manual on Codes, Volume
// I.1.
type ObservableProperty struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	BasePhenomenon string `json:"base_phenomenon"`
	UnitOfMeasure  string `json:"unit_of_measure,omitempty"`
}

func (p ObservableProperty) String() string {
	s := fmt.Sprintf("[%s]: %s", p.ID, p.Label)
	if p.UnitOfMeasure != "" {
		s += fmt.Sprintf(" (%s)", p.UnitOfMeasure)
	}
	return s
}

// matches reports whether any field of the property matches the query.
func (p ObservableProperty) matches(query *regexp.Regexp) bool {
	return query.MatchString(p.ID) ||
		query.MatchString(p.Label) ||
		query.MatchString(p.BasePhenomenon) ||
		(p.UnitOfMeasure != "" && query.MatchString(p.UnitOfMeasure))
}

// ObservableProperties holds every observation and forecast property the
// API describes, indexed by id.
type ObservableProperties struct {
	Observation map[string]ObservableProperty `json:"observation"`
	Forecast    map[string]ObservableProperty `json:"forecast"`
}

// GetObservableProperties fetches both property catalogs from the
// metadata endpoint.
func GetObservableProperties(ctx context.Context, client *fmi.Client) (*ObservableProperties, error) {
	observation, err := getProperties(ctx, client, "observation")
	if err != nil {
		return nil, err
	}
	forecast, err := getProperties(ctx, client, "forecast")
	if err != nil {
		return nil, err
	}
	return &ObservableProperties{Observation: observation, Forecast: forecast}, nil
}

// FindByID returns the property with the given id, observations first, or
// nil when neither catalog has it.
func (ps *ObservableProperties) FindByID(id string) *ObservableProperty {
	if p, ok := ps.Observation[id]; ok {
		return &p
	}
	if p, ok := ps.Forecast[id]; ok {
		return &p
	}
	return nil
}

// FindMatches returns the properties whose id, label, base phenomenon or
// unit matches the case-insensitive pattern.
func (ps *ObservableProperties) FindMatches(pattern string, observations, forecasts bool) ([]ObservableProperty, error) {
	query, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	var matches []ObservableProperty
	if observations {
		for _, p := range ps.Observation {
			if p.matches(query) {
				matches = append(matches, p)
			}
		}
	}
	if forecasts {
		for _, p := range ps.Forecast {
			if p.matches(query) {
				matches = append(matches, p)
			}
		}
	}
	return matches, nil
}

func (ps *ObservableProperties) String() string {
	return fmt.Sprintf("Descriptions for %d observations and %d forecasts.",
		len(ps.Observation), len(ps.Forecast))
}

func getProperties(ctx context.Context, client *fmi.Client, kind string) (map[string]ObservableProperty, error) {
	doc, err := client.QueryMeta(ctx, url.Values{"observableProperty": {kind}})
	if err != nil {
		return nil, err
	}
	return ParseObservableProperties(doc)
}

// ParseObservableProperties decodes an observable property catalog
// document into a map keyed by property id.
func ParseObservableProperties(doc []byte) (map[string]ObservableProperty, error) {
	var composite propertyComposite
	if err := xml.Unmarshal(doc, &composite); err != nil {
		return nil, fmt.Errorf("failed to decode property XML: %w", err)
	}

	properties := make(map[string]ObservableProperty, len(composite.Components))
	for _, c := range composite.Components {
		p := c.Property
		if p.ID == "" {
			return nil, fmt.Errorf("observable property without id")
		}
		if p.Label == "" {
			return nil, fmt.Errorf("observable property %s has no label", p.ID)
		}
		properties[p.ID] = ObservableProperty{
			ID:             p.ID,
			Label:          p.Label,
			BasePhenomenon: p.BasePhenomenon,
			UnitOfMeasure:  p.UOM.Value,
		}
	}
	return properties, nil
}

type propertyComposite struct {
	XMLName    xml.Name `xml:"CompositeObservableProperty"`
	Components []struct {
		Property struct {
			ID             string `xml:"id,attr"`
			Label          string `xml:"label"`
			BasePhenomenon string `xml:"basePhenomenon"`
			UOM            struct {
				Value string `xml:"uom,attr"`
			} `xml:"uom"`
		} `xml:"ObservableProperty"`
	} `xml:"component"`
}
