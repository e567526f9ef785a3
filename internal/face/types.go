package face

import "image"

// Detection is a single face reported by the detection model.
type Detection struct {
	Index int       `json:"face_index"`
	BBox  []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixel coordinates
	Score float64   `json:"det_score"`
}

// Region is the primary face selected from a photo: its location in
// the normalized grid plus the pixels cropped to it. Regions live only
// for the duration of one pipeline invocation; only the embedding
// derived from them is ever persisted.
type Region struct {
	BBox   []float64
	Score  float64
	Pixels *image.RGBA
}

// Area returns the bounding-box area in square pixels.
func (d Detection) Area() float64 {
	if len(d.BBox) != 4 {
		return 0
	}
	w := d.BBox[2] - d.BBox[0]
	h := d.BBox[3] - d.BBox[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
