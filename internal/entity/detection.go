package entity

// Detection is one positioned text token, from OCR or from a PDF glyph run.
type Detection struct {
	Text       string  `json:"text"`
	MinX       float64 `json:"min_x"`
	MinY       float64 `json:"min_y"`
	MaxX       float64 `json:"max_x"`
	MaxY       float64 `json:"max_y"`
	Confidence float64 `json:"confidence"`
}

// MidY is the vertical midpoint used for row bucketing.
func (d Detection) MidY() float64 {
	return (d.MinY + d.MaxY) / 2
}

// Height of the bounding box.
func (d Detection) Height() float64 {
	return d.MaxY - d.MinY
}

// Unit tells which coordinate space a page uses.
type Unit string

const (
	UnitPixel Unit = "px"
	UnitPoint Unit = "pt"
)

// Page groups the detections of one image or one PDF page.
type Page struct {
	Number     int         `json:"number"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Unit       Unit        `json:"unit"`
	Detections []Detection `json:"detections"`
}
