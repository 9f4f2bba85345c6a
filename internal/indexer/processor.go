package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/optionstack/option-indexer/internal/domain"
	"github.com/optionstack/option-indexer/internal/logger"
	"github.com/optionstack/option-indexer/internal/store"
)

// Processor applies decoded option events to the state store in the order
// the batch was assembled. Every failure is local: one bad event is logged
// and skipped, the rest of the batch still applies, and the scan tick never
// fails because of it.
type Processor struct {
	store store.Store
}

// NewProcessor creates an event processor writing to the given store
func NewProcessor(st store.Store) *Processor {
	return &Processor{store: st}
}

// ProcessBatch applies a batch of events in order
func (p *Processor) ProcessBatch(ctx context.Context, events []*domain.OptionEvent) {
	for _, event := range events {
		if err := p.processOne(event); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("kind", string(event.Kind)),
				zap.Uint64("token_id", event.TokenID),
				zap.String("tx_hash", event.TxHash))
		}
	}
}

// processOne applies a single event, converting panics into errors so a
// malformed event can never take down the batch
func (p *Processor) processOne(event *domain.OptionEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing event: %v", r)
		}
	}()

	switch event.Kind {
	case domain.EventKindOptionOpened, domain.EventKindChildOptionOpened:
		p.applyCreation(event)
	case domain.EventKindOptionExercised:
		p.applyExercise(event)
	case domain.EventKindBalanceTransferred:
		p.applyTransfer(event)
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
	return nil
}

// applyCreation constructs or overwrites the option record (last-write-wins,
// never a partial merge) and appends the matching history entry
func (p *Processor) applyCreation(event *domain.OptionEvent) {
	opt := &domain.Option{
		TokenID:        event.TokenID,
		Creator:        event.Creator,
		BaseAsset:      event.BaseAsset,
		StrikePrice:    event.StrikePrice,
		ExpirationTime: event.ExpirationTime,
		Premium:        event.Premium,
		ParentID:       event.ParentID,
		IsParent:       event.ParentID == 0,

		StrikeDisplay:  domain.FormatUnits(event.StrikePrice, domain.BaseAssetDecimals),
		PremiumDisplay: domain.FormatUnits(event.Premium, domain.BaseAssetDecimals),
		ExpirationISO:  domain.ExpirationISO(event.ExpirationTime),

		BlockNumber: event.BlockNumber,
		BlockHash:   event.BlockHash,
		TxHash:      event.TxHash,
		CreatedAt:   event.Timestamp,
	}
	p.store.UpsertOption(opt)

	txType := domain.TransactionOptionCreated
	if event.Kind == domain.EventKindChildOptionOpened {
		txType = domain.TransactionChildOptionCreated
	}
	p.store.AppendTransaction(domain.TransactionRecord{
		Type:      txType,
		TokenID:   event.TokenID,
		Actor:     event.Creator,
		Amount:    event.Premium,
		Timestamp: event.Timestamp,
		TxHash:    event.TxHash,
	})
}

// applyExercise marks the option exercised. A referential miss (creation
// event unseen) drops the mutation silently; the history entry is appended
// either way.
func (p *Processor) applyExercise(event *domain.OptionEvent) {
	found := p.store.MarkExercised(event.TokenID, event.Exerciser, event.Payout)
	if !found {
		logger.Debug("Exercise for unknown option dropped",
			zap.Uint64("token_id", event.TokenID),
			zap.String("tx_hash", event.TxHash))
	}

	p.store.AppendTransaction(domain.TransactionRecord{
		Type:      domain.TransactionOptionExercised,
		TokenID:   event.TokenID,
		Actor:     event.Exerciser,
		Amount:    event.Payout,
		Timestamp: event.Timestamp,
		TxHash:    event.TxHash,
	})
}

// applyTransfer moves balances between two non-sentinel holders. Mint and
// burn shaped transfers (zero address on either side) are skipped entirely;
// balances only track secondary transfers.
func (p *Processor) applyTransfer(event *domain.OptionEvent) {
	if event.IsMintOrBurn() {
		return
	}

	value := uint64(0)
	if event.Value != nil {
		value = event.Value.Uint64()
	}
	p.store.ApplyTransfer(event.FromAddress, event.ToAddress, event.TokenID, value)

	p.store.AppendTransaction(domain.TransactionRecord{
		Type:      domain.TransactionOptionTransferred,
		TokenID:   event.TokenID,
		Actor:     event.Operator,
		From:      event.FromAddress,
		To:        event.ToAddress,
		Amount:    event.Value,
		Timestamp: event.Timestamp,
		TxHash:    event.TxHash,
	})
}
