package garden

import (
	"regexp"
	"strconv"
	"strings"
)

// State is the growth state of a tile as inferred from its rendered image.
type State int

const (
	StateEmpty State = iota
	StateGrowing
	StateGrown
	StateBlocked // weed, stone, stump or mole
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateGrowing:
		return "growing"
	case StateGrown:
		return "grown"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Markers of things occupying a tile that are not crops.
var nonCropMarkers = []string{
	"unkraut",    // weed
	"steine",     // stones
	"baumstumpf", // tree stump
	"maulwurf",   // mole
}

var imageURL = regexp.MustCompile(`url\([^)]*/([^/)]+)\)`)

// ImageName extracts the image filename from an inline background style
// such as `url("https://.../produkte/6_04.gif") no-repeat`.
func ImageName(background string) string {
	m := imageURL.FindStringSubmatch(background)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"' `)
}

// Classify maps a tile's background style to its state. It only looks at the
// asset naming of the page: `0.gif` is bare soil, `_04.gif` the last growth
// stage.
func Classify(background string) State {
	if background == "" ||
		strings.Contains(background, "/0.gif") ||
		strings.Contains(background, "produkte/0.gif") {
		return StateEmpty
	}
	lower := strings.ToLower(background)
	for _, marker := range nonCropMarkers {
		if strings.Contains(lower, marker) {
			return StateBlocked
		}
	}
	if strings.Contains(ImageName(background), "_04.gif") ||
		strings.Contains(background, "produkte/04.gif") {
		return StateGrown
	}
	return StateGrowing
}

func IsFullyGrown(background string) bool {
	return Classify(background) == StateGrown
}

func IsEmpty(background string) bool {
	return Classify(background) == StateEmpty
}

// CanWater reports whether watering the tile makes sense: something is
// rendered there and it is neither harvest-ready nor an obstacle.
func CanWater(background string) bool {
	if background == "" {
		return false
	}
	switch Classify(background) {
	case StateGrown, StateBlocked:
		return false
	}
	return true
}

// CropFromBackground parses the crop id out of a `<id>_<stage>.gif` image
// name. ok is false when the image does not follow that scheme.
func CropFromBackground(background string) (seed SeedType, ok bool) {
	name := ImageName(background)
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n <= 0 {
		return 0, false
	}
	return SeedType(n), true
}
