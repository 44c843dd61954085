package timeseries

// ResolutionBreakpoint maps a maximum ground footprint to an output grid
// size. Finer grids for smaller footprints keep payload size proportional
// to information content.
type ResolutionBreakpoint struct {
	MaxKm  float64
	Pixels int
}

// DefaultResolutionBreakpoints are heuristic, tunable configuration — not
// a correctness contract.
func DefaultResolutionBreakpoints() []ResolutionBreakpoint {
	return []ResolutionBreakpoint{
		{MaxKm: 1, Pixels: 50},
		{MaxKm: 5, Pixels: 100},
		{MaxKm: 20, Pixels: 200},
	}
}

// GridSize selects the output pixel grid for a parcel footprint. The
// larger footprint dimension drives the choice; footprints beyond the
// last breakpoint use the fallback size.
func GridSize(widthKm, heightKm float64, breakpoints []ResolutionBreakpoint, fallback int) int {
	extent := widthKm
	if heightKm > extent {
		extent = heightKm
	}
	for _, bp := range breakpoints {
		if extent < bp.MaxKm {
			return bp.Pixels
		}
	}
	return fallback
}
