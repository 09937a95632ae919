package skill

const (
	MinDepth = 1
	MaxDepth = 8
)

// depthSteps lists the lowest rating that earns each depth above MinDepth.
var depthSteps = []struct {
	rating int
	depth  int
}{
	{2900, 8},
	{2750, 7},
	{2650, 6},
	{2500, 5},
	{2350, 4},
	{2200, 3},
	{2000, 2},
}

// DepthFor returns the bot search depth for a rating. Estimates are capped at
// MaxRating, so depth 8 is only reached through an explicit initial depth.
func DepthFor(rating int) int {
	for _, step := range depthSteps {
		if rating >= step.rating {
			return step.depth
		}
	}
	return MinDepth
}

func ValidDepth(d int) bool {
	return d >= MinDepth && d <= MaxDepth
}
