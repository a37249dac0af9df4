package interview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/handoverhq/handover/internal/store"
)

// CoverageArea is one knowledge area's state in the coverage report.
type CoverageArea struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Covered     bool   `json:"covered"`
}

// CoverageReport shows which knowledge areas the conversation has reached.
type CoverageReport struct {
	InterviewID string         `json:"interviewId"`
	Areas       []CoverageArea `json:"areas"`
	Summary     struct {
		Covered         int `json:"covered"`
		Total           int `json:"total"`
		PercentComplete int `json:"percentComplete"`
	} `json:"summary"`
}

// Coverage analyzes the conversation so far against the knowledge areas.
func (s *Service) Coverage(ctx context.Context, id string) (*CoverageReport, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	covered := s.analyzer.Analyze(iv.LLMMessages())

	report := &CoverageReport{InterviewID: iv.ID}
	for _, a := range s.catalog.Areas {
		report.Areas = append(report.Areas, CoverageArea{
			Key:         a.Key,
			Name:        a.Name,
			Description: a.Prompt,
			Covered:     covered[a.Key],
		})
		report.Summary.Total++
		if covered[a.Key] {
			report.Summary.Covered++
		}
	}
	if report.Summary.Total > 0 {
		report.Summary.PercentComplete = roundDiv(report.Summary.Covered*100, report.Summary.Total)
	}
	return report, nil
}

// TranscriptResult is the rendered conversation.
type TranscriptResult struct {
	Transcript   string `json:"transcript"`
	MessageCount int    `json:"messageCount"`
	Duration     string `json:"duration"`
}

// Transcript renders the conversation as timestamped plain text.
func (s *Service) Transcript(ctx context.Context, id string) (*TranscriptResult, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(iv.Messages))
	for _, m := range iv.Messages {
		speaker := "Interviewer"
		if m.Role == "user" {
			speaker = "Expert"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format(time.RFC3339), speaker, m.Content))
	}
	duration := "N/A"
	if len(iv.Messages) > 1 {
		d := iv.Messages[len(iv.Messages)-1].Timestamp.Sub(iv.Messages[0].Timestamp)
		duration = fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return &TranscriptResult{
		Transcript:   strings.Join(lines, "\n\n"),
		MessageCount: len(iv.Messages),
		Duration:     duration,
	}, nil
}

// snapshotDoc is the subset of a stored snapshot the summary needs. Kept
// local so the summary can aggregate snapshots without depending on the
// extractor.
type snapshotDoc struct {
	Timestamp           time.Time `json:"timestamp"`
	TopicsCovered       []string  `json:"topicsCovered"`
	KeyInsights         []string  `json:"keyInsights"`
	Gaps                []string  `json:"gaps"`
	FrameworksMentioned []string  `json:"frameworksMentioned"`
}

// SummaryCoverage compares captured topics against what the role is expected
// to cover.
type SummaryCoverage struct {
	ExpectedTopics    []string `json:"expectedTopics"`
	CoveredExpected   []string `json:"coveredExpected"`
	UncoveredExpected []string `json:"uncoveredExpected"`
	Percent           int      `json:"percent"`
	Depth             string   `json:"depth"` // deep, moderate or shallow
}

// Summary aggregates every snapshot of an interview into one view.
type Summary struct {
	InterviewID         string          `json:"interviewId"`
	Role                string          `json:"role"`
	Phase               string          `json:"phase"`
	MessageCount        int             `json:"messageCount"`
	SnapshotCount       int             `json:"snapshotCount"`
	Duration            int             `json:"duration"` // minutes
	TopicsCovered       []string        `json:"topicsCovered"`
	KeyInsights         []string        `json:"keyInsights"`
	Gaps                []string        `json:"gaps"`
	FrameworksMentioned []string        `json:"frameworksMentioned"`
	Coverage            SummaryCoverage `json:"coverage"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           *time.Time      `json:"updatedAt,omitempty"`
}

// Summarize merges all snapshots of the interview, deduplicating across them,
// and scores coverage against the role's expected topics.
func (s *Service) Summarize(ctx context.Context, id string) (*Summary, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sids, err := s.store.List(ctx, "snapshots/"+id)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", id, err)
	}
	snaps := make([]snapshotDoc, 0, len(sids))
	for _, sid := range sids {
		var doc snapshotDoc
		if err := s.store.Get(ctx, "snapshots/"+id+"/"+sid, &doc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load snapshot %s: %w", sid, err)
		}
		snaps = append(snaps, doc)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Timestamp.After(snaps[j].Timestamp) })

	summary := &Summary{
		InterviewID:   iv.ID,
		Role:          iv.Role,
		Phase:         iv.Phase,
		MessageCount:  len(iv.Messages),
		SnapshotCount: len(snaps),
		CreatedAt:     iv.CreatedAt,
		UpdatedAt:     iv.UpdatedAt,
	}
	if len(iv.Messages) > 1 {
		d := iv.Messages[len(iv.Messages)-1].Timestamp.Sub(iv.Messages[0].Timestamp)
		summary.Duration = int(d.Minutes())
	}
	for _, snap := range snaps {
		summary.TopicsCovered = mergeUnique(summary.TopicsCovered, snap.TopicsCovered)
		summary.KeyInsights = mergeUnique(summary.KeyInsights, snap.KeyInsights)
		summary.Gaps = mergeUnique(summary.Gaps, snap.Gaps)
		summary.FrameworksMentioned = mergeUnique(summary.FrameworksMentioned, snap.FrameworksMentioned)
	}

	role, _ := s.catalog.Role(iv.Role)
	summary.Coverage = compareExpected(role.ExpectedTopics, summary.TopicsCovered)
	return summary, nil
}

func mergeUnique(dst, src []string) []string {
	for _, v := range src {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// compareExpected treats an expected topic as covered when any captured topic
// mentions one of its meaningful words.
func compareExpected(expected, captured []string) SummaryCoverage {
	cov := SummaryCoverage{
		ExpectedTopics:    expected,
		CoveredExpected:   []string{},
		UncoveredExpected: []string{},
		Depth:             "shallow",
	}
	lowerCaptured := make([]string, len(captured))
	for i, c := range captured {
		lowerCaptured[i] = strings.ToLower(c)
	}
	for _, exp := range expected {
		covered := false
		for _, word := range strings.Fields(strings.ToLower(exp)) {
			if len(word) <= 3 {
				continue
			}
			for _, got := range lowerCaptured {
				if strings.Contains(got, word) {
					covered = true
					break
				}
			}
			if covered {
				break
			}
		}
		if covered {
			cov.CoveredExpected = append(cov.CoveredExpected, exp)
		} else {
			cov.UncoveredExpected = append(cov.UncoveredExpected, exp)
		}
	}
	if len(expected) > 0 {
		cov.Percent = roundDiv(len(cov.CoveredExpected)*100, len(expected))
	}
	switch {
	case cov.Percent >= 70:
		cov.Depth = "deep"
	case cov.Percent >= 40:
		cov.Depth = "moderate"
	}
	return cov
}
