package relay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/farehop/farehop/pkg/domain"
)

// BuildKey constructs the store key for a staged record:
//
//	<stagePrefix>_<subjectID>_<bucket>[_<disambiguator>]
//
// The bucket is derived from at according to the stage's granularity: a UTC
// calendar day for search stages (repeat searches by one subject on one day
// collide on purpose) or nanoseconds for draft stages (concurrent drafts
// never collide). BuildKey is a pure function; the same inputs produce the
// same key in every process.
//
// Anonymous flows (empty subjectID) must pass a per-request nonce as the
// disambiguator, otherwise all anonymous callers would share one key.
func BuildKey(stage domain.Stage, subjectID string, at time.Time, disambiguator string) (string, error) {
	spec, err := stage.Spec()
	if err != nil {
		return "", err
	}
	if subjectID == "" && disambiguator == "" {
		return "", errors.New("anonymous staging requires a per-request disambiguator")
	}

	var bucket string
	switch spec.Bucket {
	case domain.BucketDay:
		bucket = at.UTC().Format("20060102")
	default:
		bucket = strconv.FormatInt(at.UnixNano(), 10)
	}

	parts := []string{spec.Prefix, sanitizeSegment(subjectID), bucket}
	if disambiguator != "" {
		parts = append(parts, sanitizeSegment(disambiguator))
	}
	return strings.Join(parts, "_"), nil
}

// segmentEscaper neutralizes the key separator and whitespace inside a
// segment. The escape is injective: '%' itself is escaped first, so two
// distinct segment values can never produce the same escaped form and
// collapse onto one key.
var segmentEscaper = strings.NewReplacer(
	"%", "%25",
	"_", "%5F",
	" ", "%20",
	"\t", "%09",
	"\n", "%0A",
)

func sanitizeSegment(s string) string {
	return segmentEscaper.Replace(s)
}

func init() {
	// Guard against a prefix collision sneaking in through a stage edit:
	// a shared prefix would let one stage read another's records.
	seen := map[string]domain.Stage{}
	for _, st := range []domain.Stage{
		domain.StageSearch, domain.StageSelect, domain.StageCheckoutInit,
		domain.StageSightSearch, domain.StageSightSelect,
	} {
		spec, err := st.Spec()
		if err != nil {
			panic(fmt.Sprintf("stage %s missing spec: %v", st, err))
		}
		if prior, dup := seen[spec.Prefix]; dup {
			panic(fmt.Sprintf("stages %s and %s share key prefix %q", prior, st, spec.Prefix))
		}
		seen[spec.Prefix] = st
	}
}
