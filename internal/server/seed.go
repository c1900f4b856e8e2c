package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playperu/geohunt/internal/geohunt"
)

// demoTasks sit around Berlin Mitte, close enough for one hunt.
var demoTasks = []geohunt.Task{
	{
		Name:       "Brandenburger Tor",
		RiddleText: "Twelve columns, one chariot, and a goddess facing east.",
		Hints:      []string{"Pariser Platz", "Quadriga"},
		Location:   geohunt.Point{Lon: 13.3777, Lat: 52.5163},
	},
	{
		Name:       "Fernsehturm",
		RiddleText: "A silver ball on a needle, visible from everywhere.",
		Hints:      []string{"Alexanderplatz", "368 metres"},
		Location:   geohunt.Point{Lon: 13.4094, Lat: 52.5208},
	},
	{
		Name:       "Reichstag",
		RiddleText: "Climb the glass dome above the parliament.",
		Hints:      []string{"Platz der Republik", "Dem deutschen Volke"},
		Location:   geohunt.Point{Lon: 13.3761, Lat: 52.5186},
	},
	{
		Name:       "Checkpoint Charlie",
		RiddleText: "You are leaving the American sector.",
		Hints:      []string{"Friedrichstrasse", "Guard hut"},
		Location:   geohunt.Point{Lon: 13.3904, Lat: 52.5075},
	},
	{
		Name:       "Berliner Dom",
		RiddleText: "A green dome on Museum Island.",
		Hints:      []string{"Lustgarten", "Spree"},
		Location:   geohunt.Point{Lon: 13.4010, Lat: 52.5191},
	},
	{
		Name:       "Gendarmenmarkt",
		RiddleText: "Two domes face each other across a concert hall.",
		Hints:      []string{"Konzerthaus", "French and German"},
		Location:   geohunt.Point{Lon: 13.3927, Lat: 52.5137},
	},
}

// SeedDemoTasks inserts the demo tasks if the store has no tasks yet.
// Idempotent: does nothing once any task exists.
func SeedDemoTasks(ctx context.Context, logger *slog.Logger, tasks geohunt.TaskStore) error {
	n, err := tasks.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting tasks: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, t := range demoTasks {
		t.CreatedBy = "demo"
		if _, err := tasks.Insert(ctx, t); err != nil {
			return fmt.Errorf("seeding %s: %w", t.Name, err)
		}
	}
	logger.Info("demo tasks seeded", "count", len(demoTasks))
	return nil
}
