package levels

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
)

// localExtremums finds indices where compare holds against every neighbor
// within radius. Endpoints are excluded because they can produce false
// extremums.
func localExtremums(
	window []decimal.Decimal,
	compare func(a, b decimal.Decimal) int,
	radius int,
) (indices []int, extremums []decimal.Decimal) {
	for i := radius; i < len(window)-radius; i++ {
		isExtremum := true
		for j := i - radius; j <= i+radius; j++ {
			if compare(window[j], window[i]) < 0 {
				isExtremum = false
				break
			}
		}
		if isExtremum {
			indices = append(indices, i)
		}
	}

	for _, i := range indices {
		extremums = append(extremums, window[i])
	}
	return indices, extremums
}

func LocalMaximums(window []decimal.Decimal, radius int) ([]int, []decimal.Decimal) {
	return localExtremums(window, func(a, b decimal.Decimal) int {
		return b.Cmp(a)
	}, radius)
}

func LocalMinimums(window []decimal.Decimal, radius int) ([]int, []decimal.Decimal) {
	return localExtremums(window, func(a, b decimal.Decimal) int {
		return a.Cmp(b)
	}, radius)
}

// CalcLevelsByDensity splits the price range into sectors and takes the
// most visited sectors as levels.
func CalcLevelsByDensity(window []decimal.Decimal) []market.Level {
	if len(window) == 0 {
		return nil
	}

	eps := decimal.NewFromInt(1) // depends on asset
	valueMin := window[0]
	valueMax := window[0]
	for _, p := range window[1:] {
		valueMin = decimal.Min(valueMin, p)
		valueMax = decimal.Max(valueMax, p)
	}
	valueMax = valueMax.Add(eps)

	const sectorsCount = 20
	sectorLen := valueMax.Sub(valueMin).Div(decimal.NewFromInt(sectorsCount))

	counts := make(map[int64]int)
	for _, p := range window {
		sector := p.Sub(valueMin).Div(sectorLen).Floor().IntPart()
		counts[sector]++
	}

	type sectorCount struct {
		index int64
		count int
	}
	sectors := make([]sectorCount, 0, len(counts))
	for index, count := range counts {
		sectors = append(sectors, sectorCount{index, count})
	}
	sort.Slice(sectors, func(i, j int) bool {
		if sectors[i].count != sectors[j].count {
			return sectors[i].count > sectors[j].count
		}
		return sectors[i].index < sectors[j].index
	})

	const levelsCount = 5
	if len(sectors) > levelsCount {
		sectors = sectors[:levelsCount]
	}

	res := make([]market.Level, 0, len(sectors))
	for _, s := range sectors {
		bottom := valueMin.Add(sectorLen.Mul(decimal.NewFromInt(s.index)))
		top := bottom.Add(sectorLen)
		res = append(res, market.NewLevel(bottom.Round(0), top.Round(0)))
	}
	return res
}

// GroupClosePoints partitions points into groups of values within eps of the
// group's lowest member. Returned groups hold indices into points.
func GroupClosePoints(points []decimal.Decimal, eps decimal.Decimal) [][]int {
	indices := make([]int, len(points))
	for i := range points {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return points[indices[i]].LessThan(points[indices[j]])
	})

	var res [][]int
	var current []int

	for _, index := range indices {
		if len(current) == 0 {
			current = append(current, index)
			continue
		}
		if points[index].LessThanOrEqual(points[current[0]].Add(eps)) {
			current = append(current, index)
			continue
		}
		res = append(res, current)
		current = []int{index}
	}
	if len(current) > 0 {
		res = append(res, current)
	}
	return res
}

// Deduplicate collapses runs of equal adjacent values into one.
func Deduplicate(values []decimal.Decimal) []decimal.Decimal {
	var res []decimal.Decimal
	for i, v := range values {
		if i == 0 || !v.Equal(values[i-1]) {
			res = append(res, v)
		}
	}
	return res
}

func avg(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(0)
}

// CalcLevelsByMAExtremums smooths closes with a short moving average and
// builds levels around clusters of its local extremums.
func CalcLevelsByMAExtremums(klines []market.Kline) []market.Level {
	const maSize = 3

	maList := CalcMAList(market.Closes(klines), maSize)

	// Too much precision makes no practical sense; required precision
	// depends on asset.
	for i := range maList {
		maList[i] = maList[i].Round(0)
	}

	// Adjacent points with very close values do not build a level: trading
	// was not much active this time. Treat repeating points as one point.
	maList = Deduplicate(maList)

	_, maximums := LocalMaximums(maList, 1)
	_, minimums := LocalMinimums(maList, 1)
	extremums := append(append([]decimal.Decimal{}, maximums...), minimums...)

	// eps should be meanPrice * coef, where coef is configurable
	eps := decimal.NewFromInt(10)

	var groups [][]int
	for _, g := range GroupClosePoints(extremums, eps) {
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}

	centers := make([]decimal.Decimal, 0, len(groups))
	for _, g := range groups {
		points := make([]decimal.Decimal, 0, len(g))
		for _, index := range g {
			points = append(points, extremums[index])
		}
		centers = append(centers, avg(points))
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i].LessThan(centers[j]) })

	radius := decimal.NewFromInt(5) // should be configurable
	res := make([]market.Level, 0, len(centers))
	for _, c := range centers {
		res = append(res, market.NewLevel(c.Sub(radius), c.Add(radius)))
	}
	return res
}

// HighestLevel picks the level with the highest bottom bound.
func HighestLevel(lvls []market.Level) market.Level {
	res := lvls[0]
	for _, l := range lvls[1:] {
		if l.Low.GreaterThan(res.Low) {
			res = l
		}
	}
	return res
}

// LowestLevel picks the level with the lowest bottom bound.
func LowestLevel(lvls []market.Level) market.Level {
	res := lvls[0]
	for _, l := range lvls[1:] {
		if l.Low.LessThan(res.Low) {
			res = l
		}
	}
	return res
}

// CalcLevelsVariation measures how far apart two level midpoints are,
// relative to the second one.
func CalcLevelsVariation(a, b market.Level) decimal.Decimal {
	return a.Mid().Div(b.Mid()).Sub(decimal.NewFromInt(1)).Abs()
}
