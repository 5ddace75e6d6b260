package stations

import "encoding/xml"

// XML mapping for the fmi::ef::stations catalog response.

// facilityCollection is the root WFS response of the station catalog.
type facilityCollection struct {
	XMLName xml.Name         `xml:"FeatureCollection"`
	Members []facilityMember `xml:"member"`
}

type facilityMember struct {
	Facility monitoringFacility `xml:"EnvironmentalMonitoringFacility"`
}

// monitoringFacility is one station of the catalog.
type monitoringFacility struct {
	GmlID      string        `xml:"id,attr"`
	Identifier gmlIdentifier `xml:"identifier"`
	Names      []gmlName     `xml:"name"`
	Point      gmlPoint      `xml:"representativePoint>Point"`
	Begin      string        `xml:"operationalActivityPeriod>OperationalActivityPeriod>activityTime>TimePeriod>beginPosition"`
	End        string        `xml:"operationalActivityPeriod>OperationalActivityPeriod>activityTime>TimePeriod>endPosition"`
	BelongsTo  []belongsTo   `xml:"belongsTo"`
}

type gmlIdentifier struct {
	CodeSpace string `xml:"codeSpace,attr"`
	Value     string `xml:",chardata"`
}

type gmlName struct {
	CodeSpace string `xml:"codeSpace,attr"`
	Value     string `xml:",chardata"`
}

type gmlPoint struct {
	GmlID   string `xml:"id,attr"`
	SrsName string `xml:"srsName,attr"`
	Pos     string `xml:"pos"`
}

// belongsTo names one station kind the facility supports (in Finnish).
type belongsTo struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}
