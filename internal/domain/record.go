package domain

import "time"

// FaceRecord is what a finished session hands to the record store: one
// image per angle, in target order.
type FaceRecord struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Subject   string          `json:"subject,omitempty"`
	Images    []CapturedImage `json:"images"`
	CreatedAt time.Time       `json:"created_at"`
}

// Complete reports whether the record holds exactly one image for every
// fixed angle.
func (r *FaceRecord) Complete() bool {
	want := Angles()
	if len(r.Images) != len(want) {
		return false
	}
	seen := make(map[Angle]bool, len(want))
	for _, img := range r.Images {
		if img.URI == "" || seen[img.Angle] {
			return false
		}
		seen[img.Angle] = true
	}
	for _, a := range want {
		if !seen[a] {
			return false
		}
	}
	return true
}
