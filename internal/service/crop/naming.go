package crop

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cropfolder/internal/model"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	illegalChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_")
)

// Namer builds per-batch output base names. Repeated sub-names within one
// batch get a _2, _3, ... suffix keyed by the raw sub-name.
type Namer struct {
	globalName string
	used       map[string]int
}

// NewNamer starts a batch. An empty globalName falls back to fallback.
func NewNamer(globalName, fallback string) *Namer {
	if strings.TrimSpace(globalName) == "" {
		globalName = fallback
	}
	return &Namer{
		globalName: sanitize(globalName),
		used:       make(map[string]int),
	}
}

// Next returns the base filename (without extension) for the crop at
// position in the batch.
func (n *Namer) Next(position int, req model.CropRequest) string {
	subName := strings.TrimSpace(string(req.SubName))
	if subName == "" {
		ordinal := position + 1
		if req.Index != nil {
			ordinal = *req.Index + 1
		}
		subName = strconv.Itoa(ordinal)
	}

	unique := subName
	if count, ok := n.used[subName]; ok {
		count++
		n.used[subName] = count
		unique = fmt.Sprintf("%s_%d", subName, count)
	} else {
		n.used[subName] = 1
	}

	base := n.globalName + "_" + sanitize(unique)
	if desc := strings.TrimSpace(req.Description); desc != "" {
		base += "_" + sanitize(whitespace.ReplaceAllString(desc, "_"))
	}
	return base
}

// BaseName strips the extension from filename.
func BaseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func sanitize(s string) string {
	return illegalChars.Replace(s)
}
