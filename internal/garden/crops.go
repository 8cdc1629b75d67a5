package garden

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// SeedType is the game's numeric crop id.
type SeedType int

const (
	Lettuce    SeedType = 2
	Strawberry SeedType = 3
	Tomato     SeedType = 5
	Carrot     SeedType = 6
	Cucumber   SeedType = 12
	Radish     SeedType = 14
)

func (s SeedType) String() string {
	return strconv.Itoa(int(s))
}

// CropInfo carries display data for a crop: a translucent fill and a solid
// border colour.
type CropInfo struct {
	Name       string `json:"name"`
	Background string `json:"bg"`
	Border     string `json:"border"`
}

var knownCrops = map[SeedType]CropInfo{
	Lettuce:    {Name: "Lettuce", Background: "rgba(46, 204, 113, 0.3)", Border: "#2ecc71"},
	Carrot:     {Name: "Carrot", Background: "rgba(243, 156, 18, 0.3)", Border: "#f39c12"},
	Cucumber:   {Name: "Cucumber", Background: "rgba(155, 89, 182, 0.3)", Border: "#9b59b6"},
	Radish:     {Name: "Radish", Background: "rgba(231, 76, 60, 0.3)", Border: "#e74c3c"},
	Strawberry: {Name: "Strawberry", Background: "rgba(220, 20, 60, 0.3)", Border: "#dc143c"},
	Tomato:     {Name: "Tomato", Background: "rgba(255, 99, 71, 0.3)", Border: "#ff6347"},
}

var generatedCrops sync.Map // SeedType -> CropInfo

// Crop returns display data for seed. Unknown seeds get a generated colour
// that stays the same for the life of the process.
func Crop(seed SeedType) CropInfo {
	if info, ok := knownCrops[seed]; ok {
		return info
	}
	if info, ok := generatedCrops.Load(seed); ok {
		return info.(CropInfo)
	}
	info, _ := generatedCrops.LoadOrStore(seed, generateCrop(seed))
	return info.(CropInfo)
}

func CropName(seed SeedType) string {
	return Crop(seed).Name
}

// KnownSeeds lists the predefined seed types in ascending order.
func KnownSeeds() []SeedType {
	out := make([]SeedType, 0, len(knownCrops))
	for s := range knownCrops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func generateCrop(seed SeedType) CropInfo {
	n := int(seed)
	if n < 0 {
		n = -n
	}
	hue := math.Mod(float64(n)*137.508, 360)
	sat := 0.60 + float64(n%30)/100
	light := 0.45 + float64(n%20)/100

	c := colorful.Hsl(hue, sat, light)
	r, g, b := c.RGB255()
	return CropInfo{
		Name:       fmt.Sprintf("Crop %d", seed),
		Background: fmt.Sprintf("rgba(%d, %d, %d, 0.3)", r, g, b),
		Border:     c.Hex(),
	}
}

// Tool identifies a selectable affordance of the page's tool bar.
type Tool string

const (
	ToolWater   Tool = "giessen"
	ToolHarvest Tool = "ernten"
)

// SeedTool is the shelf slot that selects seed for planting.
func SeedTool(seed SeedType) Tool {
	return Tool(fmt.Sprintf("regal_%d", seed))
}
