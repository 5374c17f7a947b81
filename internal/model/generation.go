package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Generation is a contiguous, 1-based national dex id interval.
type Generation struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Count is the number of entries in the range.
func (g Generation) Count() int {
	return g.End - g.Start + 1
}

// Generations lists every release generation in order.
var Generations = []Generation{
	{Key: "genOne", Label: "Gen One", Start: 1, End: 151},
	{Key: "genTwo", Label: "Gen Two", Start: 152, End: 251},
	{Key: "genThree", Label: "Gen Three", Start: 252, End: 386},
	{Key: "genFour", Label: "Gen Four", Start: 387, End: 493},
	{Key: "genFive", Label: "Gen Five", Start: 494, End: 649},
	{Key: "genSix", Label: "Gen Six", Start: 650, End: 721},
	{Key: "genSeven", Label: "Gen Seven", Start: 722, End: 809},
	{Key: "genEight", Label: "Gen Eight", Start: 810, End: 898},
	{Key: "genNine", Label: "Gen Nine", Start: 899, End: 1010},
}

// ErrUnknownGeneration is wrapped by LookupGeneration failures.
var ErrUnknownGeneration = errors.New("unknown generation")

// DefaultGeneration is shown before the user picks one.
func DefaultGeneration() Generation {
	return Generations[0]
}

// LookupGeneration accepts a key ("genThree", case-insensitive) or a
// 1-based number ("3").
func LookupGeneration(s string) (Generation, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(Generations) {
			return Generation{}, fmt.Errorf("%w %d: must be 1-%d", ErrUnknownGeneration, n, len(Generations))
		}
		return Generations[n-1], nil
	}
	for _, g := range Generations {
		if strings.EqualFold(g.Key, s) {
			return g, nil
		}
	}
	return Generation{}, fmt.Errorf("%w %q", ErrUnknownGeneration, s)
}

// GenerationOf returns the generation containing a national dex id.
func GenerationOf(id int) (Generation, bool) {
	for _, g := range Generations {
		if id >= g.Start && id <= g.End {
			return g, true
		}
	}
	return Generation{}, false
}
