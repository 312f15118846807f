package service

import "errors"

// Review workflow errors. These are sentinels so handlers can translate
// them to HTTP status codes with errors.Is; wrap with fmt.Errorf("%w: ...")
// to add detail without breaking the mapping.
var (
	// ErrListingNotFound indicates an unknown listing ID
	ErrListingNotFound = errors.New("listing not found")

	// ErrDwellingNotFound indicates an unknown dwelling ID
	ErrDwellingNotFound = errors.New("dwelling not found")

	// ErrInvalidAction indicates an action outside {confirm, reject, skip}
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidCandidate indicates a confirm whose dwelling is not on the
	// listing's matched parcel
	ErrInvalidCandidate = errors.New("dwelling is not a candidate for this listing")

	// ErrMissingReason indicates a reject without a recognized reason
	ErrMissingReason = errors.New("rejection reason required")

	// ErrUnresolvedParcel indicates a confirm on a listing with no parcel
	// match; there is nothing to link to
	ErrUnresolvedParcel = errors.New("listing has no resolved parcel")

	// ErrConcurrentModification indicates the listing changed since the
	// client read it (expected_version mismatch)
	ErrConcurrentModification = errors.New("listing was modified by another reviewer")
)
