package domain

import (
	"fmt"
	"time"
)

// Stage identifies one step of the booking workflow. Each stage owns a fixed
// store-key prefix, a token-encryption purpose string, a TTL for its staged
// records, and a key-bucket granularity.
type Stage string

const (
	StageSearch          Stage = "search"
	StageSelect          Stage = "select"
	StageCheckoutInit    Stage = "checkout_init"
	StageCheckoutConfirm Stage = "checkout_confirm"
	StageSightSearch     Stage = "sight_search"
	StageSightSelect     Stage = "sight_select"
)

// BucketGranularity controls how the temporal bucket of a store key is
// derived from wall-clock time.
type BucketGranularity int

const (
	// BucketDay collapses all requests of one subject within a calendar day
	// onto the same key. Repeated searches overwrite each other.
	BucketDay BucketGranularity = iota

	// BucketNano gives every request its own key, so concurrent booking
	// drafts of one subject never collide.
	BucketNano
)

// StageSpec is the static configuration of a stage.
type StageSpec struct {
	// Prefix is the first segment of every store key the stage writes.
	// Prefixes never overlap between stages, so a key can never be read
	// back as a semantically different document.
	Prefix string

	// Purpose binds the stage's continuation tokens to a dedicated
	// encryption key. Tokens minted by one stage fail to decode under
	// another stage's key.
	Purpose string

	// TTL bounds the lifetime of the stage's staged records.
	TTL time.Duration

	// Bucket selects the temporal granularity of the stage's store keys.
	Bucket BucketGranularity
}

var stageSpecs = map[Stage]StageSpec{
	StageSearch: {
		Prefix:  "flightsearch",
		Purpose: "flight-search-results",
		TTL:     600 * time.Second,
		Bucket:  BucketDay,
	},
	StageSelect: {
		Prefix:  "flightselect",
		Purpose: "flight-booking-info",
		TTL:     900 * time.Second,
		Bucket:  BucketNano,
	},
	StageCheckoutInit: {
		Prefix:  "userbooking",
		Purpose: "user-booking-draft",
		TTL:     1200 * time.Second,
		Bucket:  BucketNano,
	},
	StageSightSearch: {
		Prefix:  "sightsearch",
		Purpose: "sight-search-results",
		TTL:     900 * time.Second,
		Bucket:  BucketDay,
	},
	StageSightSelect: {
		Prefix:  "sightselect",
		Purpose: "sight-selection",
		TTL:     900 * time.Second,
		Bucket:  BucketNano,
	},
}

// Spec returns the static configuration of a stage. StageCheckoutConfirm is
// terminal and stages nothing, so it has no spec.
func (s Stage) Spec() (StageSpec, error) {
	spec, ok := stageSpecs[s]
	if !ok {
		return StageSpec{}, fmt.Errorf("stage %q has no staging configuration", s)
	}
	return spec, nil
}

// Valid reports whether s is a known workflow stage.
func (s Stage) Valid() bool {
	if s == StageCheckoutConfirm {
		return true
	}
	_, ok := stageSpecs[s]
	return ok
}

func (s Stage) String() string { return string(s) }
