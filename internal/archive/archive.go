package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"slidereel/internal/services"
	"slidereel/internal/tempfiles"
)

// Kind classifies an archive entry by its extension.
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindAudio
)

var extensionKinds = map[string]Kind{
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".m4a":  KindAudio,
	".aac":  KindAudio,
}

// Classify reports the kind of an entry name. Comparison is case-insensitive.
func Classify(name string) Kind {
	return extensionKinds[strings.ToLower(path.Ext(name))]
}

// MediaSet is the ordered result of ingesting an archive. Images[i] and
// Audios[i] form slide i. The *Names slices carry the original entry names in
// the same order.
type MediaSet struct {
	Images     []string
	Audios     []string
	ImageNames []string
	AudioNames []string
}

// Len returns the number of slides.
func (m MediaSet) Len() int {
	return len(m.Images)
}

// Summary counts the classified entries of an archive without extracting them.
type Summary struct {
	ImageNames []string
	AudioNames []string
	Ignored    int
}

// Inspect opens the archive, orders and classifies its entries, and validates
// the pairing without writing anything to disk.
func Inspect(data []byte) (Summary, error) {
	entries, err := orderedEntries(data)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	for _, entry := range entries {
		switch Classify(entry.Name) {
		case KindImage:
			summary.ImageNames = append(summary.ImageNames, entry.Name)
		case KindAudio:
			summary.AudioNames = append(summary.AudioNames, entry.Name)
		default:
			summary.Ignored++
		}
	}
	if err := validateCounts(len(summary.ImageNames), len(summary.AudioNames)); err != nil {
		return summary, err
	}
	return summary, nil
}

// Ingest extracts every image and audio entry of the archive to fresh paths
// allocated from tracker, in numeric entry order. Each written path is tracked
// before it is written, so a failed ingest still leaves everything for cleanup.
func Ingest(data []byte, tracker *tempfiles.Tracker) (MediaSet, error) {
	entries, err := orderedEntries(data)
	if err != nil {
		return MediaSet{}, err
	}

	var set MediaSet
	for _, entry := range entries {
		kind := Classify(entry.Name)
		if kind == KindOther {
			continue
		}
		target := tracker.NewPath(strings.ToLower(path.Ext(entry.Name)))
		if err := extract(entry, target); err != nil {
			return set, services.Wrap(services.ErrValidation, "ingest", "extract", entry.Name, err)
		}
		if kind == KindImage {
			set.Images = append(set.Images, target)
			set.ImageNames = append(set.ImageNames, entry.Name)
		} else {
			set.Audios = append(set.Audios, target)
			set.AudioNames = append(set.AudioNames, entry.Name)
		}
	}

	if err := validateCounts(len(set.Images), len(set.Audios)); err != nil {
		return set, err
	}
	return set, nil
}

func validateCounts(images, audios int) error {
	if images == 0 {
		return services.Wrap(services.ErrValidation, "ingest", "", "no images were provided in the archive", nil)
	}
	if images != audios {
		return services.Wrap(services.ErrValidation, "ingest", "",
			fmt.Sprintf("archive provides %d images but %d audio clips", images, audios), nil)
	}
	return nil
}

// orderedEntries returns regular, non-hidden entries sorted by the number
// that prefixes their base name. Entries without a numeric prefix keep their
// archive order and sort after numbered ones.
func orderedEntries(data []byte) ([]*zip.File, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "open", "payload is not a readable zip archive", err)
	}

	entries := make([]*zip.File, 0, len(reader.File))
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || isHidden(file.Name) {
			continue
		}
		entries = append(entries, file)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ni, okI := numericKey(entries[i].Name)
		nj, okJ := numericKey(entries[j].Name)
		switch {
		case okI && okJ:
			return ni < nj
		case okI != okJ:
			return okI
		default:
			return false
		}
	})
	return entries, nil
}

// numericKey parses the leading decimal digits of the entry's base name.
func numericKey(name string) (int, bool) {
	base := path.Base(name)
	end := 0
	for end < len(base) && base[end] >= '0' && base[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isHidden(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}

func extract(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
