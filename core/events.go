package core

import "strings"

// EventKind identifies a domain event. The string values are persisted in
// subscription rows and must never be renamed.
type EventKind string

const (
	EventKindCorridorHealthDegraded   EventKind = "CorridorHealthDegraded"
	EventKindAnchorStatusChanged      EventKind = "AnchorStatusChanged"
	EventKindPaymentCreated           EventKind = "PaymentCreated"
	EventKindCorridorLiquidityDropped EventKind = "CorridorLiquidityDropped"
)

func (k EventKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the catalog kinds.
func (k EventKind) Valid() bool {
	_, ok := ParseEventKind(string(k))
	return ok
}

// Event is the closed set of domain events. Only the variants declared in
// this package implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

// CorridorMetrics is a point-in-time snapshot of corridor health.
type CorridorMetrics struct {
	ID                     string  `json:"id"`
	SourceAssetCode        string  `json:"source_asset_code"`
	SourceAssetIssuer      string  `json:"source_asset_issuer"`
	DestinationAssetCode   string  `json:"destination_asset_code"`
	DestinationAssetIssuer string  `json:"destination_asset_issuer"`
	Date                   string  `json:"date"`
	TotalTransactions      int64   `json:"total_transactions"`
	SuccessfulTransactions int64   `json:"successful_transactions"`
	FailedTransactions     int64   `json:"failed_transactions"`
	SuccessRate            float64 `json:"success_rate"`
	VolumeUSD              float64 `json:"volume_usd"`
	AvgSettlementLatencyMS *int64  `json:"avg_settlement_latency_ms"`
	LiquidityDepthUSD      float64 `json:"liquidity_depth_usd"`
}

func (m CorridorMetrics) clone() CorridorMetrics {
	out := m
	if m.AvgSettlementLatencyMS != nil {
		value := *m.AvgSettlementLatencyMS
		out.AvgSettlementLatencyMS = &value
	}
	return out
}

type CorridorHealthDegradedEvent struct {
	CorridorKey string          `json:"corridor_key"`
	OldMetrics  CorridorMetrics `json:"old_metrics"`
	NewMetrics  CorridorMetrics `json:"new_metrics"`
	Severity    string          `json:"severity"`
	Changes     []string        `json:"changes"`
}

func (CorridorHealthDegradedEvent) Kind() EventKind { return EventKindCorridorHealthDegraded }
func (CorridorHealthDegradedEvent) isEvent()        {}

// NewCorridorHealthDegradedEvent copies the inputs so later mutation by the
// caller cannot leak into the event.
func NewCorridorHealthDegradedEvent(
	corridorKey string,
	oldMetrics CorridorMetrics,
	newMetrics CorridorMetrics,
	severity string,
	changes []string,
) CorridorHealthDegradedEvent {
	copied := make([]string, len(changes))
	copy(copied, changes)
	return CorridorHealthDegradedEvent{
		CorridorKey: strings.TrimSpace(corridorKey),
		OldMetrics:  oldMetrics.clone(),
		NewMetrics:  newMetrics.clone(),
		Severity:    strings.TrimSpace(severity),
		Changes:     copied,
	}
}

type AnchorStatusChangedEvent struct {
	AnchorID         string  `json:"anchor_id"`
	Name             string  `json:"name"`
	OldStatus        string  `json:"old_status"`
	NewStatus        string  `json:"new_status"`
	ReliabilityScore float64 `json:"reliability_score"`
	FailedTxnCount   int64   `json:"failed_txn_count"`
}

func (AnchorStatusChangedEvent) Kind() EventKind { return EventKindAnchorStatusChanged }
func (AnchorStatusChangedEvent) isEvent()        {}

type PaymentCreatedEvent struct {
	PaymentID   string  `json:"payment_id"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	AssetCode   string  `json:"asset_code"`
	AssetIssuer string  `json:"asset_issuer"`
	Amount      float64 `json:"amount"`
	Timestamp   string  `json:"timestamp"`
}

func (PaymentCreatedEvent) Kind() EventKind { return EventKindPaymentCreated }
func (PaymentCreatedEvent) isEvent()        {}

type CorridorLiquidityDroppedEvent struct {
	CorridorKey       string  `json:"corridor_key"`
	LiquidityDepthUSD float64 `json:"liquidity_depth_usd"`
	Threshold         float64 `json:"threshold"`
	LiquidityTrend    string  `json:"liquidity_trend"`
	Severity          string  `json:"severity"`
}

func (CorridorLiquidityDroppedEvent) Kind() EventKind { return EventKindCorridorLiquidityDropped }
func (CorridorLiquidityDroppedEvent) isEvent()        {}

var (
	_ Event = CorridorHealthDegradedEvent{}
	_ Event = AnchorStatusChangedEvent{}
	_ Event = PaymentCreatedEvent{}
	_ Event = CorridorLiquidityDroppedEvent{}
)
