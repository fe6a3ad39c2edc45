package loan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tier is one row of the period → interest table.
type Tier struct {
	PeriodSeconds  int64 `json:"period_seconds"`
	InterestRateBP int64 `json:"interest_rate_bp"`
}

// DefaultTiers: 1 hour at 10%, 6 hours at 30%, 24 hours at 50%.
var DefaultTiers = []Tier{
	{PeriodSeconds: 3600, InterestRateBP: 1000},
	{PeriodSeconds: 21600, InterestRateBP: 3000},
	{PeriodSeconds: 86400, InterestRateBP: 5000},
}

// DefaultGracePeriod is how long after its due time an unpaid loan stays active.
const DefaultGracePeriod = 7 * 24 * time.Hour

// RateTable selects a tier by exact period; there is no interpolation.
type RateTable struct {
	tiers []Tier
}

func NewRateTable(tiers []Tier) (RateTable, error) {
	if len(tiers) == 0 {
		return RateTable{}, fmt.Errorf("rate table: no tiers")
	}
	seen := make(map[int64]bool, len(tiers))
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.PeriodSeconds <= 0 || t.InterestRateBP < 0 {
			return RateTable{}, fmt.Errorf("rate table: invalid tier %+v", t)
		}
		if seen[t.PeriodSeconds] {
			return RateTable{}, fmt.Errorf("rate table: duplicate period %d", t.PeriodSeconds)
		}
		seen[t.PeriodSeconds] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodSeconds < out[j].PeriodSeconds })
	return RateTable{tiers: out}, nil
}

// ParseTiers reads "3600:1000,21600:3000" (period seconds : basis points).
func ParseTiers(s string) ([]Tier, error) {
	var out []Tier
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		period, bp, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("tier %q: want period:bp", part)
		}
		p, err := strconv.ParseInt(strings.TrimSpace(period), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", part, err)
		}
		b, err := strconv.ParseInt(strings.TrimSpace(bp), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", part, err)
		}
		out = append(out, Tier{PeriodSeconds: p, InterestRateBP: b})
	}
	return out, nil
}

func (t RateTable) Lookup(periodSeconds int64) (Tier, error) {
	for _, tier := range t.tiers {
		if tier.PeriodSeconds == periodSeconds {
			return tier, nil
		}
	}
	return Tier{}, ErrUnknownLoanTier.WithRef(strconv.FormatInt(periodSeconds, 10))
}

func (t RateTable) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}
