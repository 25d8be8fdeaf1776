package usecase

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/limits"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type limitsUseCase struct {
	repo   limits.Repository
	logger logger.ZapLogger
}

func NewLimitsUseCase(repo limits.Repository, log logger.ZapLogger) limits.UseCase {
	return &limitsUseCase{repo: repo, logger: log}
}

func (uc *limitsUseCase) Classify(ctx context.Context, input *limits.ClassifyInput) (*limits.Decision, error) {
	all, err := uc.repo.ListActiveByTechnician(ctx, input.TechnicianID)
	if err != nil {
		return nil, err
	}

	var applicable []model.TechnicianLimit
	for _, l := range all {
		if l.CategoryID == nil {
			applicable = append(applicable, l)
			continue
		}
		if input.CategoryID != nil && *l.CategoryID == *input.CategoryID {
			applicable = append(applicable, l)
		}
	}

	// Fail safe: an unconfigured technician never auto-approves.
	if len(applicable) == 0 {
		uc.logger.Debug("no limits configured, defaulting to level 1 approval",
			zap.String("technician_id", input.TechnicianID))
		return &limits.Decision{RequiredLevel: 1}, nil
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	dayUsage, err := uc.repo.PeriodUsage(ctx, input.TechnicianID, startOfDay)
	if err != nil {
		return nil, err
	}
	monthUsage, err := uc.repo.PeriodUsage(ctx, input.TechnicianID, startOfMonth)
	if err != nil {
		return nil, err
	}

	return classify(applicable, input.RequestValue, dayUsage, monthUsage), nil
}

// classify applies the ceiling rules to the already-filtered limit set. The
// most restrictive applicable limit wins: any violated limit forces approval
// at the highest violated approver level, any requires-approval limit vetoes
// auto-approval at its own level, and only when neither applies can a
// satisfied auto-approve threshold short-circuit the decision.
func classify(applicable []model.TechnicianLimit, value, dayUsage, monthUsage decimal.Decimal) *limits.Decision {
	violatedSet := map[string]bool{}
	violatedLevel := 0
	requiresLevel := 0
	fallbackLevel := 1
	autoCandidate := false

	for _, l := range applicable {
		level := l.ApproverLevel
		if level < 1 {
			level = 1
		}
		if level > fallbackLevel {
			fallbackLevel = level
		}
		if l.RequiresApproval && level > requiresLevel {
			requiresLevel = level
		}

		limitViolated := false
		if l.MaxValuePerRequest.IsPositive() && value.GreaterThan(l.MaxValuePerRequest) {
			violatedSet["maxValuePerRequest"] = true
			limitViolated = true
		}
		if l.MaxValuePerDay.IsPositive() && dayUsage.Add(value).GreaterThan(l.MaxValuePerDay) {
			violatedSet["maxValuePerDay"] = true
			limitViolated = true
		}
		if l.MaxValuePerMonth.IsPositive() && monthUsage.Add(value).GreaterThan(l.MaxValuePerMonth) {
			violatedSet["maxValuePerMonth"] = true
			limitViolated = true
		}
		if limitViolated && level > violatedLevel {
			violatedLevel = level
		}

		if !limitViolated && l.AutoApproveBelow.IsPositive() && value.LessThanOrEqual(l.AutoApproveBelow) {
			autoCandidate = true
		}
	}

	if len(violatedSet) > 0 {
		level := violatedLevel
		if requiresLevel > level {
			level = requiresLevel
		}
		violated := make([]string, 0, len(violatedSet))
		for name := range violatedSet {
			violated = append(violated, name)
		}
		return &limits.Decision{RequiredLevel: level, Violated: violated}
	}
	if requiresLevel > 0 {
		return &limits.Decision{RequiredLevel: requiresLevel}
	}
	if autoCandidate {
		return &limits.Decision{AutoApprove: true}
	}
	return &limits.Decision{RequiredLevel: fallbackLevel}
}
