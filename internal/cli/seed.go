package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/symptomcy/internal/models"
	"github.com/terraincognita07/symptomcy/internal/services"
)

type seedResult struct {
	BuiltinsAdded int
	Entries       int
	Activities    int
	Skipped       bool
}

type demoActivity struct {
	name        string
	category    string
	hour        int
	probability float64
}

var demoActivities = []demoActivity{
	{name: "Coffee", category: "food", hour: 8, probability: 0.8},
	{name: "Running", category: "exercise", hour: 18, probability: 0.35},
	{name: "Alcohol", category: "food", hour: 21, probability: 0.2},
	{name: "Meditation", category: "wellbeing", hour: 7, probability: 0.3},
}

func newSeedCommand(options *rootOptions) *cobra.Command {
	var (
		days  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert built-in symptom types and demo history",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := options.config()
			if err != nil {
				return err
			}
			runtime, err := openRuntime(config)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			result, err := seedDemoData(ctx, runtime, days, force, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.Skipped {
				fmt.Fprintf(out, "Built-in symptoms added: %d. Entries already present, demo history skipped (use --force).\n", result.BuiltinsAdded)
				return nil
			}
			fmt.Fprintf(out, "Built-in symptoms added: %d, entries: %d, activities: %d\n", result.BuiltinsAdded, result.Entries, result.Activities)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 60, "days of demo history to generate")
	cmd.Flags().BoolVar(&force, "force", false, "generate history even when entries exist")
	return cmd
}

// seedDemoData generates deterministic history from the demo profile seed. Headaches follow
// alcohol and short nights, energy follows running, so every analysis has something to find.
func seedDemoData(ctx context.Context, runtime *appRuntime, days int, force bool, now time.Time) (seedResult, error) {
	if days <= 0 || days > services.MaxAnalysisDays {
		return seedResult{}, fmt.Errorf("days must be between 1 and %d", services.MaxAnalysisDays)
	}

	added, err := runtime.repos.Symptoms.EnsureBuiltins()
	if err != nil {
		return seedResult{}, fmt.Errorf("ensure builtin symptoms: %w", err)
	}
	result := seedResult{BuiltinsAdded: added}

	existing, err := runtime.repos.Entries.Count()
	if err != nil {
		return result, fmt.Errorf("count entries: %w", err)
	}
	if existing > 0 && !force {
		result.Skipped = true
		return result, nil
	}

	types, err := runtime.repos.Symptoms.List()
	if err != nil {
		return result, fmt.Errorf("list symptom types: %w", err)
	}
	byName := make(map[string]models.SymptomType, len(types))
	for _, symptomType := range types {
		byName[symptomType.Name] = symptomType
	}

	location := runtime.config.Location
	rng := rand.New(rand.NewSource(runtime.profile.Seed))
	today := services.DateAtLocation(now, location)
	entries := make([]models.SymptomEntry, 0, days*3)
	add := func(entry models.SymptomEntry) {
		if !entry.CreatedAt.After(now) {
			entries = append(entries, entry)
		}
	}

	for offset := days - 1; offset >= 1; offset-- {
		day := today.AddDate(0, 0, -offset)
		drank, ran := false, false

		for _, activity := range demoActivities {
			if rng.Float64() >= activity.probability {
				continue
			}
			event := models.ActivityEvent{
				Name:       activity.name,
				Category:   activity.category,
				OccurredAt: day.Add(time.Duration(activity.hour)*time.Hour + time.Duration(rng.Intn(50))*time.Minute),
			}
			if err := runtime.repos.Activities.Create(&event); err != nil {
				return result, fmt.Errorf("create activity: %w", err)
			}
			result.Activities++
			drank = drank || activity.name == "Alcohol"
			ran = ran || activity.name == "Running"
		}

		snapshot := metricSnapshot(ctx, runtime.resolver, day)
		next := day.AddDate(0, 0, 1)

		if headache, ok := byName["Headache"]; ok {
			severity := 1 + rng.Intn(2)
			if drank {
				severity += 2
			}
			if snapshot.SleepHours != nil && *snapshot.SleepHours < 6.5 {
				severity++
			}
			if drank || rng.Float64() < 0.35 {
				add(demoEntry(headache.ID, severity, next.Add(time.Duration(7+rng.Intn(5))*time.Hour), snapshot))
			}
		}
		if energy, ok := byName["Energy"]; ok {
			severity := 2 + rng.Intn(2)
			if ran {
				severity += 2
			}
			add(demoEntry(energy.ID, severity, next.Add(time.Duration(12+rng.Intn(4))*time.Hour), snapshot))
		}
		if fatigue, ok := byName["Fatigue"]; ok && rng.Float64() < 0.3 {
			add(demoEntry(fatigue.ID, 2+rng.Intn(3), day.Add(time.Duration(15+rng.Intn(5))*time.Hour), snapshot))
		}
	}

	if err := runtime.repos.Entries.CreateBatch(entries); err != nil {
		return result, fmt.Errorf("create entries: %w", err)
	}
	result.Entries = len(entries)
	return result, nil
}

func demoEntry(typeID uint, severity int, at time.Time, snapshot models.SymptomEntry) models.SymptomEntry {
	if severity > models.MaxSeverity {
		severity = models.MaxSeverity
	}
	entry := snapshot
	entry.SymptomTypeID = typeID
	entry.Severity = severity
	entry.CreatedAt = at
	return entry
}

// metricSnapshot captures the metrics an entry logged on day would have recorded.
func metricSnapshot(ctx context.Context, resolver *services.MetricResolver, day time.Time) models.SymptomEntry {
	snapshot := models.SymptomEntry{}
	if value, err := resolver.HRV(ctx, day); err == nil {
		snapshot.HRV = value
	}
	if value, err := resolver.RestingHeartRate(ctx, day); err == nil {
		snapshot.RestingHR = value
	}
	if value, err := resolver.SleepHours(ctx, day); err == nil {
		snapshot.SleepHours = value
	}
	return snapshot
}
