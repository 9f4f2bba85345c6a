package ethereum

import (
	"context"
	"fmt"

	"github.com/optionstack/option-indexer/internal/adapter"
	"github.com/optionstack/option-indexer/internal/block"
)

// headFetcher implements block.HeadFetcher for Ethereum
type headFetcher struct {
	client adapter.EthClient
}

func NewHeadFetcher(client adapter.EthClient) block.HeadFetcher {
	return &headFetcher{client: client}
}

// FetchLatestBlock fetches the latest block number from the chain
func (f *headFetcher) FetchLatestBlock(ctx context.Context) (uint64, error) {
	header, err := f.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}
