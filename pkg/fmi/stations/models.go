// Package stations provides the station catalog of the FMI open data API.
package stations

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// Station kinds as they appear (in Finnish) in the catalog.
const (
	kindWeather            = "Automaattinen sääasema"
	kindRadiation          = "Auringonsäteilyasema"
	kindAirQuality         = "Ilmanlaadun tausta-asema"
	kindAirQuality3rdParty = "Kolmannen osapuolen ilmanlaadun havaintoasema"
)

// Station is a measurement station identified by fmisid. A station can
// support multiple kinds of observations; the kinds are listed, in
// Finnish, in Kinds. Begin and End state when the station is or was
// operational; a nil End means it still is.
type Station struct {
	FMISID int        `json:"fmisid"`
	Name   string     `json:"name"`
	GeoID  string     `json:"geoid,omitempty"`
	Region string     `json:"region,omitempty"`
	Point  fmi.Point  `json:"point"`
	Begin  time.Time  `json:"begin"`
	End    *time.Time `json:"end,omitempty"`
	Kinds  []string   `json:"kinds"`
}

func (s Station) String() string {
	return fmt.Sprintf("[%d]: %s", s.FMISID, s.Name)
}

// Catalog holds all available stations.
type Catalog struct {
	Stations []Station `json:"stations"`
}

// Weather returns the automatic weather stations, optionally filtered by a
// case-insensitive name pattern, sorted by name.
func (c *Catalog) Weather(namePattern string) ([]Station, error) {
	return c.filterKinds(namePattern, kindWeather)
}

// Radiation returns the solar radiation stations, optionally filtered by a
// case-insensitive name pattern, sorted by name.
func (c *Catalog) Radiation(namePattern string) ([]Station, error) {
	return c.filterKinds(namePattern, kindRadiation)
}

// AirQuality returns the air quality stations, both the background network
// and third-party ones, optionally filtered by a case-insensitive name
// pattern, sorted by name.
func (c *Catalog) AirQuality(namePattern string) ([]Station, error) {
	return c.filterKinds(namePattern, kindAirQuality, kindAirQuality3rdParty)
}

// filterKinds returns stations supporting any of the given kinds. An empty
// pattern matches every name.
func (c *Catalog) filterKinds(namePattern string, kinds ...string) ([]Station, error) {
	var nameRe *regexp.Regexp
	if namePattern != "" {
		re, err := regexp.Compile("(?i)" + namePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern: %w", err)
		}
		nameRe = re
	}

	var filtered []Station
	for _, s := range c.Stations {
		if !hasAnyKind(s.Kinds, kinds) {
			continue
		}
		if nameRe != nil && !nameRe.MatchString(s.Name) {
			continue
		}
		filtered = append(filtered, s)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })
	return filtered, nil
}

func hasAnyKind(stationKinds, wanted []string) bool {
	for _, k := range stationKinds {
		for _, w := range wanted {
			if k == w {
				return true
			}
		}
	}
	return false
}
