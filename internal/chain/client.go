// Package chain wraps go-ethereum RPC access behind the Reader
// interface the indexer consumes.
package chain

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client implements Reader against a JSON-RPC endpoint, filtering
// pool-creation logs from one factory contract.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	factory   common.Address
}

// NewClient dials the RPC URL and binds the factory address whose
// PoolCreated events will be scanned.
func NewClient(ctx context.Context, rpcURL string, factoryAddress string) (*Client, error) {
	if !common.IsHexAddress(factoryAddress) {
		return nil, fmt.Errorf("invalid factory address: %s", factoryAddress)
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		factory:   common.HexToAddress(factoryAddress),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// HeadBlock returns the latest block number.
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// PoolCreatedEvents queries and decodes factory PoolCreated logs in the
// inclusive block range.
func (c *Client) PoolCreatedEvents(ctx context.Context, fromBlock, toBlock uint64) ([]PoolCreatedEvent, error) {
	factory, err := factoryABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	event := factory.Events["PoolCreated"]

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.factory},
		Topics:    [][]common.Hash{{event.ID}},
	}
	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}

	out := make([]PoolCreatedEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed || len(log.Topics) != 4 {
			continue
		}

		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack PoolCreated at block %d: %w", log.BlockNumber, err)
		}
		if len(values) != 2 {
			return nil, fmt.Errorf("unexpected PoolCreated values: %d", len(values))
		}
		tickSpacingInt, err := asBigInt(values[0])
		if err != nil {
			return nil, fmt.Errorf("tick spacing: %w", err)
		}
		tickSpacing, err := int24FromBig(tickSpacingInt)
		if err != nil {
			return nil, fmt.Errorf("tick spacing: %w", err)
		}
		poolAddr, err := asAddress(values[1])
		if err != nil {
			return nil, fmt.Errorf("pool address: %w", err)
		}

		fee := new(big.Int).SetBytes(log.Topics[3].Bytes())
		out = append(out, PoolCreatedEvent{
			PoolAddress: poolAddr.Hex(),
			Token0:      common.BytesToAddress(log.Topics[1].Bytes()).Hex(),
			Token1:      common.BytesToAddress(log.Topics[2].Bytes()).Hex(),
			Fee:         uint32(fee.Uint64()),
			TickSpacing: tickSpacing,
			BlockNumber: log.BlockNumber,
		})
	}
	return out, nil
}

// ReadTokenMetadata fetches decimals, symbol and name. Each field is
// read independently: a decimals failure becomes the returned error,
// but symbol and name are still attempted (string ABI first, then the
// bytes32 variant some old tokens use) and carried in the result.
func (c *Client) ReadTokenMetadata(ctx context.Context, address string) (TokenMetadata, error) {
	var meta TokenMetadata
	if !common.IsHexAddress(address) {
		return meta, fmt.Errorf("invalid token address: %s", address)
	}
	token := common.HexToAddress(address)

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	var decimalsErr error
	if values, err := c.callMethod(ctx, token, stringABI, "decimals", nil); err != nil {
		decimalsErr = err
	} else if decimals, err := asUint8(values[0]); err != nil {
		decimalsErr = err
	} else {
		meta.Decimals = decimals
	}

	if values, err := c.callMethod(ctx, token, stringABI, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := c.callMethod(ctx, token, bytes32ABI, "symbol", nil); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	}

	if values, err := c.callMethod(ctx, token, stringABI, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := c.callMethod(ctx, token, bytes32ABI, "name", nil); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	}

	return meta, decimalsErr
}

// ReadPoolState reads slot0, liquidity and the fee-growth accumulators
// pinned at the current head so the fields form one coherent snapshot.
func (c *Client) ReadPoolState(ctx context.Context, address string) (PoolState, error) {
	if !common.IsHexAddress(address) {
		return PoolState{}, fmt.Errorf("invalid pool address: %s", address)
	}
	pool := common.HexToAddress(address)

	parsed, err := poolABIInstance()
	if err != nil {
		return PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	head, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return PoolState{}, fmt.Errorf("get head block: %w", err)
	}
	blockPtr := new(big.Int).SetUint64(head)

	values, err := c.callMethod(ctx, pool, parsed, "slot0", blockPtr)
	if err != nil {
		return PoolState{}, err
	}
	if len(values) < 2 {
		return PoolState{}, fmt.Errorf("unexpected slot0 values: %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return PoolState{}, fmt.Errorf("tick: %w", err)
	}

	state := PoolState{SqrtPriceX96: sqrtPrice, Tick: tick}

	values, err = c.callMethod(ctx, pool, parsed, "liquidity", blockPtr)
	if err != nil {
		return PoolState{}, err
	}
	if state.Liquidity, err = asBigInt(values[0]); err != nil {
		return PoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = c.callMethod(ctx, pool, parsed, "feeGrowthGlobal0X128", blockPtr)
	if err != nil {
		return PoolState{}, err
	}
	if state.FeeGrowthGlobal0, err = asBigInt(values[0]); err != nil {
		return PoolState{}, fmt.Errorf("fee growth 0: %w", err)
	}

	values, err = c.callMethod(ctx, pool, parsed, "feeGrowthGlobal1X128", blockPtr)
	if err != nil {
		return PoolState{}, err
	}
	if state.FeeGrowthGlobal1, err = asBigInt(values[0]); err != nil {
		return PoolState{}, fmt.Errorf("fee growth 1: %w", err)
	}

	return state, nil
}

func (c *Client) callMethod(ctx context.Context, target common.Address, parsed abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := c.ethClient.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return clampUint8(uint64(v))
	case uint32:
		return clampUint8(uint64(v))
	case uint64:
		return clampUint8(v)
	case *big.Int:
		if !v.IsUint64() {
			return 0, fmt.Errorf("uint8 overflow: %s", v.String())
		}
		return clampUint8(v.Uint64())
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func clampUint8(v uint64) (uint8, error) {
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("uint8 overflow: %d", v)
	}
	return uint8(v), nil
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
