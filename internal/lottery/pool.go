package lottery

// Pool holds one slot per valid ticket. Entrant order is kept, so ids of the
// same entrant sit next to each other.
type Pool struct {
	ids   []int64
	names []string
}

func NewPool(entrants []Entrant) Pool {
	var p Pool
	for _, e := range entrants {
		for i := 0; i < e.Tickets; i++ {
			p.ids = append(p.ids, e.ID)
			p.names = append(p.names, e.Name)
		}
	}
	return p
}

func (p Pool) Len() int { return len(p.ids) }

func (p Pool) At(i int) int64 { return p.ids[i] }

func (p Pool) IDs() []int64 {
	out := make([]int64, len(p.ids))
	copy(out, p.ids)
	return out
}

func (p Pool) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// frequencies returns per-id ticket counts in first-seen order.
func (p Pool) frequencies() ([]int64, map[int64]int) {
	order := []int64{}
	counts := map[int64]int{}
	for _, id := range p.ids {
		if _, ok := counts[id]; !ok {
			order = append(order, id)
		}
		counts[id]++
	}
	return order, counts
}

// Weighted picks an id with probability proportional to its tickets.
func (p Pool) Weighted(src Source) int64 {
	order, counts := p.frequencies()
	weights := make([]int, len(order))
	for i, id := range order {
		weights[i] = counts[id]
	}
	return order[pickWeighted(weights, src)]
}

// InvertedWeighted favours entrants holding fewer tickets. When every
// inverted weight is zero it degrades to Weighted.
func (p Pool) InvertedWeighted(src Source) int64 {
	order, _ := p.frequencies()
	inverted := InvertedWeights(p)
	weights := make([]int, len(order))
	sum := 0
	for i, id := range order {
		weights[i] = inverted[id]
		sum += weights[i]
	}
	if sum == 0 {
		return p.Weighted(src)
	}
	return order[pickWeighted(weights, src)]
}

// InvertedWeights maps each id to int((1 - f/N) * N), f being its tickets
// and N the pool size.
func InvertedWeights(p Pool) map[int64]int {
	order, counts := p.frequencies()
	total := float64(len(p.ids))
	out := make(map[int64]int, len(order))
	for _, id := range order {
		out[id] = int((1 - float64(counts[id])/total) * total)
	}
	return out
}

func pickWeighted(weights []int, src Source) int {
	sum := 0
	for _, w := range weights {
		sum += w
	}
	n := src.IntN(sum)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}
