package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/notify"
	"github.com/sirupsen/logrus"
)

// ProposalSender delivers a proposal to the review channel
type ProposalSender interface {
	SendProposal(ctx context.Context, p models.Proposal) error
}

// ProposalService forwards saved analyses for human review
type ProposalService struct {
	analyses *AnalysisService
	sender   ProposalSender
	events   notify.Publisher
	log      *logrus.Logger
	now      func() time.Time
}

// NewProposalService initializes a proposal service
func NewProposalService(analyses *AnalysisService, sender ProposalSender, events notify.Publisher, log *logrus.Logger) *ProposalService {
	if events == nil {
		events = notify.Discard{}
	}
	return &ProposalService{
		analyses: analyses,
		sender:   sender,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// BuildProposal extracts the reviewed subset of a
func BuildProposal(a models.SavedAnalysis, sentAt time.Time) models.Proposal {
	metrics := calculator.Calculate(calculator.FormFromAnalysis(a.Property, a.Analysis))
	rents := make(map[string]float64, len(a.Calculations.Plans))
	for _, p := range a.Calculations.Plans {
		rents[p.Plan] = p.MonthlyRent
	}
	return models.Proposal{
		AnalysisID:      a.ID,
		Title:           a.Title,
		Address:         a.Property.Address,
		PropertyValue:   metrics.PropertyValue,
		RecommendedPlan: a.Calculations.RecommendedPlan,
		PlanRents:       rents,
		SentAt:          sentAt,
	}
}

// Submit sends the analysis with id for review and moves it to review status.
// found is false when no such analysis exists.
func (s *ProposalService) Submit(ctx context.Context, id string) (p models.Proposal, found bool, err error) {
	a, found, err := s.analyses.GetByID(ctx, id)
	if err != nil || !found {
		return models.Proposal{}, found, err
	}

	p = BuildProposal(a, s.now())
	if err := s.sender.SendProposal(ctx, p); err != nil {
		s.events.Publish(ctx, notify.Event{
			Kind:       notify.KindProposalFailed,
			Level:      notify.LevelError,
			Title:      a.Title,
			Message:    err.Error(),
			AnalysisID: id,
		})
		return models.Proposal{}, true, fmt.Errorf("failed to send proposal: %w", err)
	}

	status := models.StatusReview
	patch := models.AnalysisPatch{Status: &status, UpdatedAt: &p.SentAt}
	if _, _, err := s.analyses.Update(ctx, id, patch); err != nil {
		s.log.WithError(err).Warnf("Proposal %s sent but status not updated", id)
	}

	s.events.Publish(ctx, notify.Event{
		Kind:       notify.KindProposalSent,
		Level:      notify.LevelSuccess,
		Title:      a.Title,
		Message:    fmt.Sprintf("Proposal sent for review, recommended plan %s", p.RecommendedPlan),
		AnalysisID: id,
	})
	return p, true, nil
}
