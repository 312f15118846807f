package models

// QueueFilter represents filter parameters for the review queue.
type QueueFilter struct {
	Status   string `form:"status"`   // unreviewed, confirmed, rejected, skipped, all
	Platform string `form:"platform"` // airbnb, vrbo, other
	Limit    int    `form:"limit"`    // Default 100, capped at 500
	Offset   int    `form:"offset"`
}

// Normalize applies queue defaults and bounds in place.
func (f *QueueFilter) Normalize() {
	if f.Status == "" {
		f.Status = ReviewUnreviewed
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
