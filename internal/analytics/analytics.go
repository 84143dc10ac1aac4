// Package analytics aggregates placed bets into performance reports.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// GroupKey selects the dimension bets are grouped by
type GroupKey string

const (
	GroupNone      GroupKey = ""
	GroupSport     GroupKey = "sport"
	GroupBookmaker GroupKey = "bookmaker"
	GroupBetType   GroupKey = "bet_type"
	GroupDay       GroupKey = "day"
)

// ParseGroupKey validates a group_by query value
func ParseGroupKey(s string) (GroupKey, error) {
	switch k := GroupKey(s); k {
	case GroupNone, GroupSport, GroupBookmaker, GroupBetType, GroupDay:
		return k, nil
	default:
		return GroupNone, fmt.Errorf("unsupported group_by %q", s)
	}
}

// Report summarizes a set of bets
type Report struct {
	Count          int     `json:"count"`
	Settled        int     `json:"settled"`
	Won            int     `json:"won"`
	Lost           int     `json:"lost"`
	Pending        int     `json:"pending"`
	TotalStake     float64 `json:"totalStake"`
	TotalProfit    float64 `json:"totalProfit"`
	ROIPercent     float64 `json:"roiPercent"`
	WinRatePercent float64 `json:"winRatePercent"`
	AverageStake   float64 `json:"averageStake"`
}

// Group is a report for one value of the grouping dimension
type Group struct {
	Key    string `json:"key"`
	Report Report `json:"report"`
}

// Filter returns the records matching f, then applies Offset and Limit
func Filter(records []models.BetRecord, f models.RecordFilter) []models.BetRecord {
	out := make([]models.BetRecord, 0, len(records))
	for _, r := range records {
		if f.Since != nil && r.PlacedAt.Before(*f.Since) {
			continue
		}
		if f.Until != nil && !r.PlacedAt.Before(*f.Until) {
			continue
		}
		if f.Sport != "" && r.Sport != f.Sport {
			continue
		}
		if f.Bookmaker != "" && r.Bookmaker != f.Bookmaker {
			continue
		}
		if f.BetType != "" && r.BetType != f.BetType {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []models.BetRecord{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

// Summarize computes totals, ROI and win rate. Win rate only counts won and
// lost bets; ROI is profit over total stake.
func Summarize(records []models.BetRecord) Report {
	var rep Report
	for _, r := range records {
		rep.Count++
		rep.TotalStake += r.Stake
		rep.TotalProfit += r.Profit

		switch r.Status {
		case models.BetStatusWon:
			rep.Won++
		case models.BetStatusLost:
			rep.Lost++
		case models.BetStatusPending:
			rep.Pending++
		}
	}
	rep.Settled = rep.Won + rep.Lost

	if rep.TotalStake > 0 {
		rep.ROIPercent = round2(rep.TotalProfit / rep.TotalStake * 100)
	}
	if rep.Settled > 0 {
		rep.WinRatePercent = round2(float64(rep.Won) / float64(rep.Settled) * 100)
	}
	if rep.Count > 0 {
		rep.AverageStake = round2(rep.TotalStake / float64(rep.Count))
	}
	rep.TotalStake = round2(rep.TotalStake)
	rep.TotalProfit = round2(rep.TotalProfit)
	return rep
}

// GroupBy summarizes records per key, ordered by key
func GroupBy(records []models.BetRecord, key GroupKey) []Group {
	if key == GroupNone {
		return nil
	}

	buckets := make(map[string][]models.BetRecord)
	for _, r := range records {
		k := groupValue(r, key)
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]Group, 0, len(buckets))
	for k, rs := range buckets {
		groups = append(groups, Group{Key: k, Report: Summarize(rs)})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
	return groups
}

func groupValue(r models.BetRecord, key GroupKey) string {
	var v string
	switch key {
	case GroupSport:
		v = r.Sport
	case GroupBookmaker:
		v = r.Bookmaker
	case GroupBetType:
		v = r.BetType
	case GroupDay:
		v = r.PlacedAt.UTC().Format("2006-01-02")
	}
	if v == "" {
		return "unknown"
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
