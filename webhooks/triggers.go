package webhooks

import (
	"context"

	"github.com/goliatone/go-webhook-dispatch/core"
)

// TriggerCorridorHealthDegraded dispatches a corridor health degradation.
func (d *Dispatcher) TriggerCorridorHealthDegraded(
	ctx context.Context,
	corridorKey string,
	oldMetrics core.CorridorMetrics,
	newMetrics core.CorridorMetrics,
	severity string,
	changes []string,
) (core.DispatchReport, error) {
	return d.Dispatch(ctx, core.NewCorridorHealthDegradedEvent(corridorKey, oldMetrics, newMetrics, severity, changes))
}

func (d *Dispatcher) TriggerAnchorStatusChanged(
	ctx context.Context,
	anchorID string,
	name string,
	oldStatus string,
	newStatus string,
	reliabilityScore float64,
	failedTxnCount int64,
) (core.DispatchReport, error) {
	return d.Dispatch(ctx, core.AnchorStatusChangedEvent{
		AnchorID:         anchorID,
		Name:             name,
		OldStatus:        oldStatus,
		NewStatus:        newStatus,
		ReliabilityScore: reliabilityScore,
		FailedTxnCount:   failedTxnCount,
	})
}

func (d *Dispatcher) TriggerPaymentCreated(
	ctx context.Context,
	paymentID string,
	source string,
	destination string,
	assetCode string,
	assetIssuer string,
	amount float64,
	timestamp string,
) (core.DispatchReport, error) {
	return d.Dispatch(ctx, core.PaymentCreatedEvent{
		PaymentID:   paymentID,
		Source:      source,
		Destination: destination,
		AssetCode:   assetCode,
		AssetIssuer: assetIssuer,
		Amount:      amount,
		Timestamp:   timestamp,
	})
}

func (d *Dispatcher) TriggerCorridorLiquidityDropped(
	ctx context.Context,
	corridorKey string,
	liquidityDepthUSD float64,
	threshold float64,
	liquidityTrend string,
	severity string,
) (core.DispatchReport, error) {
	return d.Dispatch(ctx, core.CorridorLiquidityDroppedEvent{
		CorridorKey:       corridorKey,
		LiquidityDepthUSD: liquidityDepthUSD,
		Threshold:         threshold,
		LiquidityTrend:    liquidityTrend,
		Severity:          severity,
	})
}
