package remote

import (
	"fmt"
	"time"

	"github.com/mwantia/photosync/internal/config"
)

// Scope selects how much of the remote corpus a scan covers
type Scope int

const (
	// ScopeStandard covers all items, videos and every year back to the start year
	ScopeStandard Scope = iota
	// ScopeFull adds month-by-month partitions for recent years
	ScopeFull
	// ScopeProbe is a quick scan of recent content
	ScopeProbe
)

func (s Scope) String() string {
	switch s {
	case ScopeStandard:
		return "standard"
	case ScopeFull:
		return "full"
	case ScopeProbe:
		return "probe"
	default:
		return "unknown"
	}
}

const (
	mediaFilter = "type:(PHOTOS OR VIDEOS)"
	videoFilter = "type:(VIDEOS)"
)

// Partition is one independently enumerated slice of the remote corpus
type Partition struct {
	Label   string
	Filters string
}

// Partitions returns the ordered partition plan for a scope
func Partitions(scope Scope, now time.Time, cfg config.ListingConfig) []Partition {
	year := now.Year()
	partitions := []Partition{
		{Label: "All Photos", Filters: mediaFilter},
	}

	if scope == ScopeProbe {
		return append(partitions, yearPartition(year))
	}

	partitions = append(partitions, Partition{Label: "Videos", Filters: videoFilter})

	start := cfg.StartYear
	if start <= 0 || start > year {
		start = year
	}
	for y := year; y >= start; y-- {
		partitions = append(partitions, yearPartition(y))
	}

	if scope != ScopeFull {
		return partitions
	}

	for y := year; y > year-cfg.MonthlyYears; y-- {
		for m := 1; m <= 12; m++ {
			if y == year && m > int(now.Month()) {
				break
			}
			partitions = append(partitions, Partition{
				Label:   fmt.Sprintf("%d-%02d", y, m),
				Filters: fmt.Sprintf("%s AND timeYear:(%d) AND timeMonth:(%d)", mediaFilter, y, m),
			})
		}
	}

	return partitions
}

func yearPartition(year int) Partition {
	return Partition{
		Label:   fmt.Sprintf("Year %d", year),
		Filters: fmt.Sprintf("%s AND timeYear:(%d)", mediaFilter, year),
	}
}
