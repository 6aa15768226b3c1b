// Package ids generates record identifiers that embed their creation instant.
//
// An id has the form <prefix>-<unix millis>-<8 hex>. Records written by
// older deployments use <prefix>-<unix millis> and are still understood.
package ids

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PrefixExpense = "exp"
	PrefixRequest = "req"
	PrefixUser    = "user"
)

// New returns a fresh id for prefix created at now.
func New(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

// Instant extracts the creation instant embedded in id. It reports false
// when id does not carry prefix or the millisecond field does not parse.
func Instant(id, prefix string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok || rest == "" {
		return time.Time{}, false
	}
	millis, _, _ := strings.Cut(rest, "-")
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
