package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
)

var ErrAnalysisSnapshotFailed = errors.New("analysis snapshot failed")

type AnalysisEntryReader interface {
	ListByRange(from time.Time, to time.Time) ([]models.SymptomEntry, error)
}

type AnalysisActivityReader interface {
	ListByRange(from time.Time, to time.Time) ([]models.ActivityEvent, error)
}

type AnalysisTypeReader interface {
	List() ([]models.SymptomType, error)
}

type AnalysisOptions struct {
	Location  *time.Location
	Baselines BaselineDeviations
	Now       func() time.Time
}

type AnalysisService struct {
	entries    AnalysisEntryReader
	activities AnalysisActivityReader
	types      AnalysisTypeReader
	metrics    MetricLookup
	baselines  BaselineDeviations
	location   *time.Location
	now        func() time.Time
}

func NewAnalysisService(entries AnalysisEntryReader, activities AnalysisActivityReader, types AnalysisTypeReader, metrics MetricLookup, options AnalysisOptions) *AnalysisService {
	location := options.Location
	if location == nil {
		location = time.Local
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &AnalysisService{
		entries:    entries,
		activities: activities,
		types:      types,
		metrics:    metrics,
		baselines:  options.Baselines,
		location:   location,
		now:        now,
	}
}

func (service *AnalysisService) Window(days int) (AnalysisWindow, error) {
	return NewAnalysisWindow(service.now(), days, service.location)
}

// Snapshot loads everything one analysis run reads. Activities reach back one effect window
// before the start so entries early in the window can follow them.
func (service *AnalysisService) Snapshot(window AnalysisWindow) (AnalysisSnapshot, error) {
	types, err := service.types.List()
	if err != nil {
		return AnalysisSnapshot{}, fmt.Errorf("%w: symptom types: %v", ErrAnalysisSnapshotFailed, err)
	}
	entries, err := service.entries.ListByRange(window.Start, window.End)
	if err != nil {
		return AnalysisSnapshot{}, fmt.Errorf("%w: symptom entries: %v", ErrAnalysisSnapshotFailed, err)
	}
	activities, err := service.activities.ListByRange(window.Start.Add(-ActivityEffectWindow), window.End)
	if err != nil {
		return AnalysisSnapshot{}, fmt.Errorf("%w: activities: %v", ErrAnalysisSnapshotFailed, err)
	}
	return AnalysisSnapshot{Entries: entries, Types: types, Activities: activities}, nil
}

func (service *AnalysisService) BuildReport(ctx context.Context, days int) (AnalysisReport, error) {
	window, snapshot, err := service.load(days)
	if err != nil {
		return AnalysisReport{}, err
	}

	physiology, err := AnalysePhysiologicalCorrelations(ctx, snapshot, window, service.metrics, service.baselines)
	if err != nil {
		return AnalysisReport{}, err
	}

	return AnalysisReport{
		WindowStart:               window.Start,
		WindowEnd:                 window.End,
		Days:                      window.Days,
		EntryCount:                countEntriesInWindow(snapshot.Entries, window),
		Trends:                    AnalyseSymptomTrends(snapshot, window),
		ActivityCorrelations:      AnalyseActivityCorrelations(snapshot, window),
		TimePatterns:              AnalyseTimePatterns(snapshot, window),
		PhysiologicalCorrelations: physiology,
		GeneratedAt:               service.now(),
	}, nil
}

func (service *AnalysisService) Trends(days int) ([]SymptomTrend, error) {
	window, snapshot, err := service.load(days)
	if err != nil {
		return nil, err
	}
	return AnalyseSymptomTrends(snapshot, window), nil
}

func (service *AnalysisService) ActivityCorrelations(days int) ([]ActivityCorrelation, error) {
	window, snapshot, err := service.load(days)
	if err != nil {
		return nil, err
	}
	return AnalyseActivityCorrelations(snapshot, window), nil
}

func (service *AnalysisService) TimePatterns(days int) ([]TimePattern, error) {
	window, snapshot, err := service.load(days)
	if err != nil {
		return nil, err
	}
	return AnalyseTimePatterns(snapshot, window), nil
}

func (service *AnalysisService) PhysiologicalCorrelations(ctx context.Context, days int) ([]PhysiologicalCorrelation, error) {
	window, snapshot, err := service.load(days)
	if err != nil {
		return nil, err
	}
	return AnalysePhysiologicalCorrelations(ctx, snapshot, window, service.metrics, service.baselines)
}

func (service *AnalysisService) DayIntensities(days int) ([]DayIntensity, error) {
	window, snapshot, err := service.load(days)
	if err != nil {
		return nil, err
	}
	return BuildDayIntensities(snapshot, window), nil
}

func (service *AnalysisService) load(days int) (AnalysisWindow, AnalysisSnapshot, error) {
	window, err := service.Window(days)
	if err != nil {
		return AnalysisWindow{}, AnalysisSnapshot{}, err
	}
	snapshot, err := service.Snapshot(window)
	if err != nil {
		return AnalysisWindow{}, AnalysisSnapshot{}, err
	}
	return window, snapshot, nil
}
