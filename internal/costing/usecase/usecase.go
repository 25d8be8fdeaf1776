package usecase

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/costing"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/internal/request"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type costingUseCase struct {
	repo        costing.Repository
	requestRepo request.Repository
	rates       costing.Rates
	logger      logger.ZapLogger
}

func NewCostingUseCase(repo costing.Repository, requestRepo request.Repository, rates costing.Rates, log logger.ZapLogger) costing.UseCase {
	return &costingUseCase{
		repo:        repo,
		requestRepo: requestRepo,
		rates:       rates,
		logger:      log,
	}
}

func (uc *costingUseCase) Compute(ctx context.Context, serviceRequestID string, laborHours decimal.Decimal) (*model.ServiceCostBreakdown, error) {
	existing, err := uc.repo.GetByService(ctx, serviceRequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	installed, err := uc.requestRepo.ListInstalledByService(ctx, serviceRequestID)
	if err != nil {
		return nil, err
	}

	// Parts figures come from the immutable installed-part snapshots, so a
	// later catalog price change cannot shift a settled breakdown.
	partsCost := decimal.Zero
	partsRevenue := decimal.Zero
	for _, p := range installed {
		qty := decimal.NewFromInt(int64(p.Quantity))
		partsCost = partsCost.Add(p.UnitCost.Mul(qty))
		partsRevenue = partsRevenue.Add(p.UnitPrice.Mul(qty))
	}

	laborCost := laborHours.Mul(uc.rates.LaborRatePerHour)
	overhead := partsCost.Add(laborCost).Mul(uc.rates.OverheadPercent).Div(hundred)
	subtotal := partsCost.Add(laborCost).Add(overhead)
	tax := subtotal.Mul(uc.rates.TaxPercent).Div(hundred)
	totalCost := subtotal.Add(tax)

	laborRevenue := laborCost.Mul(hundred.Add(uc.rates.LaborMarkupPercent)).Div(hundred)
	totalRevenue := partsRevenue.Add(laborRevenue)

	margin := decimal.Zero
	if totalRevenue.IsPositive() {
		margin = totalRevenue.Sub(totalCost).Div(totalRevenue).Mul(hundred)
	}

	breakdown := &model.ServiceCostBreakdown{
		ID:               uuid.New().String(),
		ServiceRequestID: serviceRequestID,
		PartsCost:        partsCost,
		PartsRevenue:     partsRevenue,
		LaborHours:       laborHours,
		LaborRate:        uc.rates.LaborRatePerHour,
		LaborCost:        laborCost,
		OverheadPercent:  uc.rates.OverheadPercent,
		OverheadAmount:   overhead,
		Subtotal:         subtotal,
		TaxPercent:       uc.rates.TaxPercent,
		TaxAmount:        tax,
		TotalCost:        totalCost,
		TotalRevenue:     totalRevenue,
		MarginPercent:    margin,
		ComputedAt:       time.Now(),
	}

	if err := uc.repo.Create(ctx, breakdown); err != nil {
		// Lost a race with a concurrent Compute; the stored row wins.
		if stored, getErr := uc.repo.GetByService(ctx, serviceRequestID); getErr == nil && stored != nil {
			return stored, nil
		}
		return nil, err
	}

	uc.logger.Info("service cost settled",
		zap.String("serviceRequestID", serviceRequestID),
		zap.String("totalCost", totalCost.String()),
		zap.String("totalRevenue", totalRevenue.String()),
	)
	return breakdown, nil
}

func (uc *costingUseCase) GetByService(ctx context.Context, serviceRequestID string) (*model.ServiceCostBreakdown, error) {
	return uc.repo.GetByService(ctx, serviceRequestID)
}
