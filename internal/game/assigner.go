// Package game runs hunts: it picks the tasks of a new hunt and moves a
// session through its tasks.
package game

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/playperu/geohunt/internal/geohunt"
)

// DefaultRadiusKm bounds the candidate search around the player.
const DefaultRadiusKm = 25.0

// Assigner picks TasksPerGame tasks near a location. Selection is a uniform
// random draw among all candidates in range; popularity and recency are
// ignored on purpose.
type Assigner struct {
	tasks    geohunt.TaskStore
	radiusKm float64
	intN     func(n int) int
}

func NewAssigner(tasks geohunt.TaskStore, radiusKm float64) *Assigner {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Assigner{tasks: tasks, radiusKm: radiusKm, intN: rand.IntN}
}

// Assign returns TasksPerGame distinct tasks within the radius of p, or
// ErrInsufficientTasks when fewer candidates exist.
func (a *Assigner) Assign(ctx context.Context, p geohunt.Point) ([]geohunt.Task, error) {
	found, err := a.tasks.FindWithinRadius(ctx, p, a.radiusKm)
	if err != nil {
		return nil, fmt.Errorf("finding tasks near %v,%v: %w", p.Lon, p.Lat, err)
	}

	seen := make(map[string]bool, len(found))
	candidates := found[:0:0]
	for _, t := range found {
		if !seen[t.ID] {
			seen[t.ID] = true
			candidates = append(candidates, t)
		}
	}
	if len(candidates) < geohunt.TasksPerGame {
		return nil, fmt.Errorf("%w: %d within %.0f km, need %d",
			geohunt.ErrInsufficientTasks, len(candidates), a.radiusKm, geohunt.TasksPerGame)
	}

	order := Permutation(len(candidates), a.intN)
	picked := make([]geohunt.Task, geohunt.TasksPerGame)
	for i := range picked {
		picked[i] = candidates[order[i]]
	}
	return picked, nil
}

// Permutation returns a Fisher-Yates shuffle of 0..n-1. intN(k) must return a
// uniform value in [0, k).
func Permutation(n int, intN func(int) int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := intN(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}
