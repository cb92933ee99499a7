package models

import "time"

// Fixed SRS section titles, in document order. The composer instructs the
// model to emit exactly these all-caps headers and the parser keys on them.
const (
	SectionIntroduction       = "INTRODUCTION"
	SectionOverallDescription = "OVERALL DESCRIPTION"
	SectionSystemFeatures     = "SYSTEM FEATURES"
	SectionNonFunctional      = "NON-FUNCTIONAL REQUIREMENTS"
	SectionAppendices         = "APPENDICES"
)

// SectionTitles lists the five fixed SRS section titles in order.
var SectionTitles = []string{
	SectionIntroduction,
	SectionOverallDescription,
	SectionSystemFeatures,
	SectionNonFunctional,
	SectionAppendices,
}

// SRSSection is one titled section of the composed document.
type SRSSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SRSDocument is the composed Software Requirements Specification.
// It is set exactly once, on the session's transition into StatusComplete,
// and never cleared while the session exists.
type SRSDocument struct {
	Introduction              string    `json:"introduction"`
	OverallDescription        string    `json:"overall_description"`
	SystemFeatures            string    `json:"system_features"`
	NonFunctionalRequirements string    `json:"non_functional_requirements"`
	Appendices                string    `json:"appendices"`
	PlainText                 string    `json:"plain_text"`
	ComposedAt                time.Time `json:"composed_at"`
}

// Sections returns the document's sections in fixed order.
func (d *SRSDocument) Sections() []SRSSection {
	return []SRSSection{
		{Title: SectionIntroduction, Body: d.Introduction},
		{Title: SectionOverallDescription, Body: d.OverallDescription},
		{Title: SectionSystemFeatures, Body: d.SystemFeatures},
		{Title: SectionNonFunctional, Body: d.NonFunctionalRequirements},
		{Title: SectionAppendices, Body: d.Appendices},
	}
}
