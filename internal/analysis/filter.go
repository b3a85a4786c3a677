package analysis

import "github.com/fiapx/fiapx-analysis-service/internal/domain/entity"

// RegionFilter bounds candidate boxes by size and shape. A zero MaxWidth or
// MaxHeight leaves that side unbounded; aspect bounds are exclusive and a zero
// bound disables that side of the check.
type RegionFilter struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
	MinAspect float64
	MaxAspect float64
}

// ClickRegionFilter keeps button- and input-shaped boxes.
func ClickRegionFilter() RegionFilter {
	return RegionFilter{
		MinWidth:  40,
		MinHeight: 20,
		MaxWidth:  500,
		MaxHeight: 200,
		MinAspect: 1.5,
		MaxAspect: 6.0,
	}
}

// TextBlockFilter is the looser filter used by the intensity-threshold strategy.
func TextBlockFilter() RegionFilter {
	return RegionFilter{MinWidth: 40, MinHeight: 15}
}

func (f RegionFilter) Accept(r entity.Region) bool {
	if r.W < f.MinWidth || r.H < f.MinHeight || r.W <= 0 || r.H <= 0 {
		return false
	}
	if f.MaxWidth > 0 && r.W > f.MaxWidth {
		return false
	}
	if f.MaxHeight > 0 && r.H > f.MaxHeight {
		return false
	}
	aspect := r.AspectRatio()
	if f.MinAspect > 0 && aspect <= f.MinAspect {
		return false
	}
	if f.MaxAspect > 0 && aspect >= f.MaxAspect {
		return false
	}
	return true
}

// Apply keeps accepted regions in their original order.
func (f RegionFilter) Apply(regions []entity.Region) []entity.Region {
	out := make([]entity.Region, 0, len(regions))
	for _, r := range regions {
		if f.Accept(r) {
			out = append(out, r)
		}
	}
	return out
}
