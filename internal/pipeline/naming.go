package pipeline

import (
	"time"

	"slidereel/internal/textutil"
)

const timestampLayout = "2006-01-02T15:04:05"

// OutputNames returns the escaped file names for the full and short videos.
func OutputNames(at time.Time, name string) (full, short string) {
	stamp := at.UTC().Format(timestampLayout)
	full = textutil.EscapeFileName(stamp+"_full_"+name+".mp4", textutil.DefaultMaxFileNameLength)
	short = textutil.EscapeFileName(stamp+"_short_"+name+".mp4", textutil.DefaultMaxFileNameLength)
	return full, short
}
