package ethereum

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/optionstack/option-indexer/internal/domain"
)

// Event signatures emitted by the option contract
var (
	// OptionOpened(uint256 indexed tokenId, address indexed creator, address baseAsset, uint256 strikePrice, uint256 expirationTime, uint256 premium)
	OptionOpenedSignature = crypto.Keccak256Hash([]byte("OptionOpened(uint256,address,address,uint256,uint256,uint256)"))

	// ChildOptionOpened(uint256 indexed tokenId, uint256 indexed parentId, address indexed creator, address baseAsset, uint256 strikePrice, uint256 expirationTime, uint256 premium)
	ChildOptionOpenedSignature = crypto.Keccak256Hash([]byte("ChildOptionOpened(uint256,uint256,address,address,uint256,uint256,uint256)"))

	// OptionExercised(uint256 indexed tokenId, address indexed exerciser, uint256 payout)
	OptionExercisedSignature = crypto.Keccak256Hash([]byte("OptionExercised(uint256,address,uint256)"))

	// ERC1155 TransferSingle(address indexed operator, address indexed from, address indexed to, uint256 id, uint256 value)
	TransferSingleSignature = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
)

// TrackedSignatures lists every event signature the scanner queries,
// one getLogs call per signature per tick
var TrackedSignatures = []common.Hash{
	OptionOpenedSignature,
	ChildOptionOpenedSignature,
	OptionExercisedSignature,
	TransferSingleSignature,
}

// DecodeOptionLog maps one raw log plus the event signature that produced it
// to a normalized option event. The signature is known up front because the
// scanner queries one signature at a time, so no discovery happens here.
// A malformed log fails only itself; callers log and move on.
//
// The returned event carries provenance from the log but no block timestamp;
// the scanner fills that in from the chain client.
func DecodeOptionLog(chainID domain.Chain, eventSig common.Hash, vLog types.Log) (*domain.OptionEvent, error) {
	if len(vLog.Topics) == 0 || vLog.Topics[0] != eventSig {
		return nil, fmt.Errorf("%w: log signature %s does not match queried signature %s",
			domain.ErrMalformedLog, topicHex(vLog), eventSig.Hex())
	}

	event := &domain.OptionEvent{
		Chain:           chainID,
		ContractAddress: vLog.Address.Hex(),
		TxHash:          vLog.TxHash.Hex(),
		BlockNumber:     vLog.BlockNumber,
		BlockHash:       vLog.BlockHash.Hex(),
	}

	switch eventSig {
	case OptionOpenedSignature:
		// topics: signature, tokenId, creator; data: baseAsset, strike, expiration, premium
		if len(vLog.Topics) != 3 {
			return nil, fmt.Errorf("%w: OptionOpened expects 3 topics, got %d", domain.ErrMalformedLog, len(vLog.Topics))
		}
		if len(vLog.Data) < 128 {
			return nil, fmt.Errorf("%w: OptionOpened expects 128 bytes of data, got %d", domain.ErrMalformedLog, len(vLog.Data))
		}

		event.Kind = domain.EventKindOptionOpened
		event.TokenID = new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64()
		event.Creator = common.BytesToAddress(vLog.Topics[2].Bytes()).Hex()
		event.BaseAsset = common.BytesToAddress(vLog.Data[0:32]).Hex()
		event.StrikePrice = new(big.Int).SetBytes(vLog.Data[32:64])
		event.ExpirationTime = new(big.Int).SetBytes(vLog.Data[64:96]).Uint64()
		event.Premium = new(big.Int).SetBytes(vLog.Data[96:128])

	case ChildOptionOpenedSignature:
		// topics: signature, tokenId, parentId, creator; data as OptionOpened
		if len(vLog.Topics) != 4 {
			return nil, fmt.Errorf("%w: ChildOptionOpened expects 4 topics, got %d", domain.ErrMalformedLog, len(vLog.Topics))
		}
		if len(vLog.Data) < 128 {
			return nil, fmt.Errorf("%w: ChildOptionOpened expects 128 bytes of data, got %d", domain.ErrMalformedLog, len(vLog.Data))
		}

		event.Kind = domain.EventKindChildOptionOpened
		event.TokenID = new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64()
		event.ParentID = new(big.Int).SetBytes(vLog.Topics[2].Bytes()).Uint64()
		event.Creator = common.BytesToAddress(vLog.Topics[3].Bytes()).Hex()
		event.BaseAsset = common.BytesToAddress(vLog.Data[0:32]).Hex()
		event.StrikePrice = new(big.Int).SetBytes(vLog.Data[32:64])
		event.ExpirationTime = new(big.Int).SetBytes(vLog.Data[64:96]).Uint64()
		event.Premium = new(big.Int).SetBytes(vLog.Data[96:128])

	case OptionExercisedSignature:
		// topics: signature, tokenId, exerciser; data: payout
		if len(vLog.Topics) != 3 {
			return nil, fmt.Errorf("%w: OptionExercised expects 3 topics, got %d", domain.ErrMalformedLog, len(vLog.Topics))
		}
		if len(vLog.Data) < 32 {
			return nil, fmt.Errorf("%w: OptionExercised expects 32 bytes of data, got %d", domain.ErrMalformedLog, len(vLog.Data))
		}

		event.Kind = domain.EventKindOptionExercised
		event.TokenID = new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64()
		event.Exerciser = common.BytesToAddress(vLog.Topics[2].Bytes()).Hex()
		event.Payout = new(big.Int).SetBytes(vLog.Data[0:32])

	case TransferSingleSignature:
		// topics: signature, operator, from, to; data: id, value
		if len(vLog.Topics) != 4 {
			return nil, fmt.Errorf("%w: TransferSingle expects 4 topics, got %d", domain.ErrMalformedLog, len(vLog.Topics))
		}
		if len(vLog.Data) < 64 {
			return nil, fmt.Errorf("%w: TransferSingle expects 64 bytes of data, got %d", domain.ErrMalformedLog, len(vLog.Data))
		}

		event.Kind = domain.EventKindBalanceTransferred
		event.Operator = common.BytesToAddress(vLog.Topics[1].Bytes()).Hex()
		event.FromAddress = common.BytesToAddress(vLog.Topics[2].Bytes()).Hex()
		event.ToAddress = common.BytesToAddress(vLog.Topics[3].Bytes()).Hex()
		event.TokenID = new(big.Int).SetBytes(vLog.Data[0:32]).Uint64()
		event.Value = new(big.Int).SetBytes(vLog.Data[32:64])

	default:
		return nil, fmt.Errorf("%w: unknown event signature %s", domain.ErrMalformedLog, eventSig.Hex())
	}

	return event, nil
}

func topicHex(vLog types.Log) string {
	if len(vLog.Topics) == 0 {
		return "<none>"
	}
	return vLog.Topics[0].Hex()
}
