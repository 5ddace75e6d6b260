package fmi

import "encoding/xml"

// XML mapping for the WFS response documents. The schema is treated as
// open: elements the decoder does not depend on are simply not mapped, and
// encoding/xml ignores them. The elements that are mapped are required and
// checked by the decoders.

// FeatureCollection is the root element of a WFS feature response.
type FeatureCollection struct {
	XMLName        xml.Name        `xml:"FeatureCollection"`
	NumberMatched  string          `xml:"numberMatched,attr"`
	NumberReturned string          `xml:"numberReturned,attr"`
	Members        []FeatureMember `xml:"member"`
}

// FeatureMember wraps one feature of the collection. Coverage responses
// carry a GridSeriesObservation, "::simple" responses a BsWfsElement.
type FeatureMember struct {
	GridSeriesObservation *GridSeriesObservation `xml:"GridSeriesObservation"`
	BsWfsElement          *BsWfsElement          `xml:"BsWfsElement"`
}

// GridSeriesObservation is one observation set in coverage encoding.
type GridSeriesObservation struct {
	GmlID                  string                 `xml:"id,attr"`
	SpatialSamplingFeature SpatialSamplingFeature `xml:"featureOfInterest>SF_SpatialSamplingFeature"`
	Result                 Result                 `xml:"result"`
}

// SpatialSamplingFeature carries the sampling metadata: which stations or
// grid points the coverage values belong to.
type SpatialSamplingFeature struct {
	GmlID string `xml:"id,attr"`
	Shape Shape  `xml:"shape"`
}

// Shape contains the sampled geometry.
type Shape struct {
	MultiPoint MultiPoint `xml:"MultiPoint"`
}

// MultiPoint lists the sampled points. Station-keyed observation documents
// use repeated pointMember elements; forecast documents pack all points
// into a single pointMembers element.
type MultiPoint struct {
	GmlID        string        `xml:"id,attr"`
	SrsName      string        `xml:"srsName,attr"`
	PointMembers []PointMember `xml:"pointMember"`
	PointsBlock  PointsBlock   `xml:"pointMembers"`
}

// PointMember wraps a single sampled point.
type PointMember struct {
	Point GMLPoint `xml:"Point"`
}

// PointsBlock is the packed pointMembers variant.
type PointsBlock struct {
	Points []GMLPoint `xml:"Point"`
}

// GMLPoint is a geographic point as encoded in the documents.
type GMLPoint struct {
	GmlID   string `xml:"id,attr"`
	SrsName string `xml:"srsName,attr"`
	Name    string `xml:"name"`
	Pos     string `xml:"pos"`
}

// Result contains the coverage payload of an observation.
type Result struct {
	MultiPointCoverage MultiPointCoverage `xml:"MultiPointCoverage"`
}

// MultiPointCoverage pairs a block of space/time positions with a parallel
// block of values across multiple parameters.
type MultiPointCoverage struct {
	GmlID     string    `xml:"id,attr"`
	DomainSet DomainSet `xml:"domainSet"`
	RangeSet  RangeSet  `xml:"rangeSet"`
	RangeType RangeType `xml:"rangeType"`
}

// DomainSet contains the position block.
type DomainSet struct {
	SimpleMultiPoint SimpleMultiPoint `xml:"SimpleMultiPoint"`
}

// SimpleMultiPoint carries the space-separated (lat, lon, epoch) triples.
type SimpleMultiPoint struct {
	GmlID     string `xml:"id,attr"`
	SrsName   string `xml:"srsName,attr"`
	Positions string `xml:"positions"`
}

// RangeSet contains the data block.
type RangeSet struct {
	DataBlock DataBlock `xml:"DataBlock"`
}

// DataBlock carries the space-separated value tuples, aligned positionally
// with the position block.
type DataBlock struct {
	DoubleOrNilReasonTupleList string `xml:"doubleOrNilReasonTupleList"`
}

// RangeType declares the parameters of the data block, in column order.
type RangeType struct {
	DataRecord DataRecord `xml:"DataRecord"`
}

// DataRecord lists the field declarations.
type DataRecord struct {
	Fields []Field `xml:"field"`
}

// Field is one declared parameter column.
type Field struct {
	Name string `xml:"name,attr"`
	Href string `xml:"href,attr"`
}

// BsWfsElement is one self-describing feature in the flat "::simple"
// encoding: its own point, one timestamp, one parameter, one value.
type BsWfsElement struct {
	GmlID          string   `xml:"id,attr"`
	Location       Location `xml:"Location"`
	Time           string   `xml:"Time"`
	ParameterName  string   `xml:"ParameterName"`
	ParameterValue string   `xml:"ParameterValue"`
}

// Location wraps the point of a simple feature.
type Location struct {
	Point GMLPoint `xml:"Point"`
}
