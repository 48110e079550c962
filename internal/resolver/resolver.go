// Package resolver implements the field-level conflict resolution
// algorithm the Flight/Weather Aggregator applies to the set of canonical
// records its fan-out collected for one query.
package resolver

import (
	"math"
	"sort"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// FieldConflict records that two or more sources disagreed on one
// critical field, and which value the resolver picked.
type FieldConflict struct {
	Field    string
	Winner   SourceValue
	Contenders []SourceValue
}

// SourceValue is one source's contribution to a disputed field.
type SourceValue struct {
	Source     string
	Value      any
	Confidence float64
	Timestamp  time.Time
}

// FlightResult is what the Conflict Resolver returns: the merged record, the
// conflicts it found, and an overall quality score.
type FlightResult struct {
	Merged       domain.CanonicalFlight
	Conflicts    []FieldConflict
	QualityScore float64
}

// ResolveFlights merges N canonical flight records for the same entity
// into one, following the algorithm.
func ResolveFlights(records []domain.CanonicalFlight, now time.Time) (*FlightResult, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyRecordSet
	}

	if len(records) == 1 {
		r := records[0]
		r.LastUpdatedUTC = now
		return &FlightResult{
			Merged:       r,
			QualityScore: flightCompleteness(r),
		}, nil
	}

	priorityOrdered := sortByPriority(records)

	merged := domain.CanonicalFlight{
		FlightNumber:          firstNonEmpty(mapStrings(priorityOrdered, func(r domain.CanonicalFlight) string { return r.FlightNumber })),
		ScheduledDepartureUTC: firstNonZeroTime(mapTimes(priorityOrdered, func(r domain.CanonicalFlight) time.Time { return r.ScheduledDepartureUTC })),
		Origin:                firstNonEmptyAirport(mapAirports(priorityOrdered, func(r domain.CanonicalFlight) domain.Airport { return r.Origin })),
		Destination:           firstNonEmptyAirport(mapAirports(priorityOrdered, func(r domain.CanonicalFlight) domain.Airport { return r.Destination })),
		AirlineIATA:           firstNonEmpty(mapStrings(priorityOrdered, func(r domain.CanonicalFlight) string { return r.AirlineIATA })),
		AirlineICAO:           firstNonEmpty(mapStrings(priorityOrdered, func(r domain.CanonicalFlight) string { return r.AirlineICAO })),
		ScheduledArrivalUTC:   firstNonZeroTime(mapTimes(priorityOrdered, func(r domain.CanonicalFlight) time.Time { return r.ScheduledArrivalUTC })),
		Gate:                  firstNonEmpty(mapStrings(priorityOrdered, func(r domain.CanonicalFlight) string { return r.Gate })),
		Terminal:              firstNonEmpty(mapStrings(priorityOrdered, func(r domain.CanonicalFlight) string { return r.Terminal })),
		Aircraft:              firstNonEmpty(mapStrings(priorityOrdered, func(r domain.CanonicalFlight) string { return r.Aircraft })),
	}

	var conflicts []FieldConflict

	statusCandidates := make([]SourceValue, 0, len(records))
	for _, r := range records {
		if r.Status == "" {
			continue
		}
		statusCandidates = append(statusCandidates, SourceValue{
			Source: sourceOf(r), Value: r.Status, Confidence: confidenceOf(r), Timestamp: r.LastUpdatedUTC,
		})
	}
	status, statusConflict := pickCritical("status", statusCandidates)
	if status != nil {
		merged.Status = status.(domain.FlightStatus)
	}
	if statusConflict != nil {
		conflicts = append(conflicts, *statusConflict)
	}

	delayArrCandidates := make([]SourceValue, 0, len(records))
	for _, r := range records {
		delayArrCandidates = append(delayArrCandidates, SourceValue{
			Source: sourceOf(r), Value: r.DelayArrivalMinutes, Confidence: confidenceOf(r), Timestamp: r.LastUpdatedUTC,
		})
	}
	delayArr, delayConflict := pickCritical("delayArrivalMinutes", delayArrCandidates)
	if delayArr != nil {
		merged.DelayArrivalMinutes = delayArr.(int)
	}
	if delayConflict != nil {
		conflicts = append(conflicts, *delayConflict)
	}

	depCandidates := make([]SourceValue, 0)
	arrCandidates := make([]SourceValue, 0)
	for _, r := range records {
		if r.ActualDeparture != nil {
			depCandidates = append(depCandidates, SourceValue{Source: sourceOf(r), Value: *r.ActualDeparture, Confidence: confidenceOf(r), Timestamp: r.LastUpdatedUTC})
		}
		if r.ActualArrival != nil {
			arrCandidates = append(arrCandidates, SourceValue{Source: sourceOf(r), Value: *r.ActualArrival, Confidence: confidenceOf(r), Timestamp: r.LastUpdatedUTC})
		}
	}
	if dep, conflict := pickCritical("actualDeparture", depCandidates); dep != nil {
		t := dep.(time.Time)
		merged.ActualDeparture = &t
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	if arr, conflict := pickCritical("actualArrival", arrCandidates); arr != nil {
		t := arr.(time.Time)
		merged.ActualArrival = &t
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}

	cancelCandidates := make([]SourceValue, 0, len(records))
	divertCandidates := make([]SourceValue, 0, len(records))
	for _, r := range records {
		cancelCandidates = append(cancelCandidates, SourceValue{Source: sourceOf(r), Value: r.Cancelled, Confidence: confidenceOf(r), Timestamp: r.LastUpdatedUTC})
		if r.Diverted {
			divertCandidates = append(divertCandidates, SourceValue{Source: sourceOf(r), Value: r.DivertedTo, Confidence: confidenceOf(r), Timestamp: r.LastUpdatedUTC})
		}
	}
	if cancelled, conflict := pickCritical("cancelled", cancelCandidates); cancelled != nil {
		merged.Cancelled = cancelled.(bool)
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	if divertTo, conflict := pickCritical("divertedTo", divertCandidates); divertTo != nil {
		merged.Diverted = true
		merged.DivertedTo = divertTo.(string)
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}

	merged.Contributions = mergeContributions(records)
	merged.LastUpdatedUTC = now
	merged.DataQualityScore = qualityScore(priorityOrdered, len(conflicts))

	return &FlightResult{Merged: merged, Conflicts: conflicts, QualityScore: merged.DataQualityScore}, nil
}

// pickCritical implements step 3-4 of the design: if fewer than two
// non-null entries disagree, pass the single present value through. If two
// or more disagree, sort by confidence desc then timestamp desc, and take
// the head, reporting it as a conflict.
func pickCritical(field string, candidates []SourceValue) (any, *FieldConflict) {
	if len(candidates) == 0 {
		return nil, nil
	}

	distinct := map[any]bool{}
	for _, c := range candidates {
		distinct[c.Value] = true
	}
	if len(distinct) < 2 {
		return candidates[0].Value, nil
	}

	sorted := make([]SourceValue, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	return sorted[0].Value, &FieldConflict{Field: field, Winner: sorted[0], Contenders: sorted}
}

// mergeContributions keeps, per source, the contribution with the higher
// confidence, then sorts the result by confidence descending.
func mergeContributions(records []domain.CanonicalFlight) []domain.SourceContribution {
	bySource := map[string]domain.SourceContribution{}
	for _, r := range records {
		for _, c := range r.Contributions {
			existing, ok := bySource[c.SourceName]
			if !ok || c.Confidence > existing.Confidence {
				bySource[c.SourceName] = c
			}
		}
	}

	merged := make([]domain.SourceContribution, 0, len(bySource))
	for _, c := range bySource {
		merged = append(merged, c)
	}
	domain.SortContributionsByConfidence(merged)
	return merged
}

// qualityScore is the mean completeness score minus a conflict penalty plus
// a source-diversity bonus, clamped to [0,1], 
func qualityScore(records []domain.CanonicalFlight, conflictCount int) float64 {
	sum := 0.0
	for _, r := range records {
		sum += flightCompleteness(r)
	}
	mean := sum / float64(len(records))

	penalty := math.Min(0.3, 0.05*float64(conflictCount))
	bonus := math.Min(0.1, 0.02*float64(len(records)-1))

	score := mean - penalty + bonus
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// flightCompleteness is the weighted presence check of the design:
// required fields weight 2, important fields weight 1, plus a small
// source-reliability contribution, capped at 1.0.
func flightCompleteness(r domain.CanonicalFlight) float64 {
	const (
		requiredWeight = 2.0
		importantWeight = 1.0
	)

	score := 0.0
	maxScore := 0.0

	required := []bool{
		r.FlightNumber != "",
		r.Origin.IATA != "",
		r.Destination.IATA != "",
		!r.ScheduledDepartureUTC.IsZero(),
	}
	for _, present := range required {
		maxScore += requiredWeight
		if present {
			score += requiredWeight
		}
	}

	important := []bool{
		r.Status != "",
		r.ActualDeparture != nil,
		r.ActualArrival != nil,
		r.AirlineICAO != "",
	}
	for _, present := range important {
		maxScore += importantWeight
		if present {
			score += importantWeight
		}
	}

	base := score / maxScore
	reliabilityContribution := 0.05 * confidenceOf(r)

	total := base + reliabilityContribution
	if total > 1.0 {
		total = 1.0
	}
	return total
}

func confidenceOf(r domain.CanonicalFlight) float64 {
	if len(r.Contributions) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range r.Contributions {
		sum += c.Confidence
	}
	return sum / float64(len(r.Contributions))
}

func sourceOf(r domain.CanonicalFlight) string {
	if len(r.Contributions) == 0 {
		return ""
	}
	return r.Contributions[0].SourceName
}

// sortByPriority orders records highest-priority-first using the same
// confidence-desc-then-timestamp-desc rule pickCritical applies to disputed
// critical fields, so the non-critical first-non-empty merge below doesn't
// depend on the aggregator's non-deterministic fan-out order.
func sortByPriority(records []domain.CanonicalFlight) []domain.CanonicalFlight {
	sorted := make([]domain.CanonicalFlight, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := confidenceOf(sorted[i]), confidenceOf(sorted[j])
		if ci != cj {
			return ci > cj
		}
		return sorted[i].LastUpdatedUTC.After(sorted[j].LastUpdatedUTC)
	})
	return sorted
}

func mapStrings(records []domain.CanonicalFlight, f func(domain.CanonicalFlight) string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

func mapTimes(records []domain.CanonicalFlight, f func(domain.CanonicalFlight) time.Time) []time.Time {
	out := make([]time.Time, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

func mapAirports(records []domain.CanonicalFlight, f func(domain.CanonicalFlight) domain.Airport) []domain.Airport {
	out := make([]domain.Airport, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZeroTime(values []time.Time) time.Time {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return time.Time{}
}

func firstNonEmptyAirport(values []domain.Airport) domain.Airport {
	for _, v := range values {
		if v.IATA != "" {
			return v
		}
	}
	return domain.Airport{}
}
