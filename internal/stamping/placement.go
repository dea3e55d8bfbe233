package stamping

// Decide places the block below the lowest painted content when at least
// BlockHeight fits above the bottom margin, and on a new page otherwise.
func Decide(lowestY float64, layout Layout) Decision {
	available := lowestY - layout.BottomMargin
	if available >= layout.BlockHeight {
		return Decision{
			TargetsExistingPage: true,
			StartY:              lowestY - layout.Gap,
		}
	}
	return Decision{
		TargetsExistingPage: false,
		StartY:              layout.NewPageHeight - layout.TopMargin,
	}
}
