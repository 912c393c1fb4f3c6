package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const factoryABIJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "internalType": "address", "name": "token0", "type": "address"},
    {"indexed": true, "internalType": "address", "name": "token1", "type": "address"},
    {"indexed": true, "internalType": "uint24", "name": "fee", "type": "uint24"},
    {"indexed": false, "internalType": "int24", "name": "tickSpacing", "type": "int24"},
    {"indexed": false, "internalType": "address", "name": "pool", "type": "address"}
  ], "name": "PoolCreated", "type": "event"}
]`

const poolABIJSON = `[
  {"inputs": [], "name": "slot0", "outputs": [
    {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
    {"internalType": "int24", "name": "tick", "type": "int24"},
    {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
    {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
    {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
    {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
    {"internalType": "bool", "name": "unlocked", "type": "bool"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "liquidity", "outputs": [{"internalType": "uint128", "type": "uint128"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "feeGrowthGlobal0X128", "outputs": [{"internalType": "uint256", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "feeGrowthGlobal1X128", "outputs": [{"internalType": "uint256", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	factoryABI      abi.ABI
	factoryABIOnce  sync.Once
	factoryABIErr   error
	poolABI         abi.ABI
	poolABIOnce     sync.Once
	poolABIErr      error
	erc20String     abi.ABI
	erc20StringOnce sync.Once
	erc20StringErr  error
	erc20B32        abi.ABI
	erc20B32Once    sync.Once
	erc20B32Err     error
)

func factoryABIInstance() (abi.ABI, error) {
	factoryABIOnce.Do(func() {
		factoryABI, factoryABIErr = abi.JSON(strings.NewReader(factoryABIJSON))
	})
	return factoryABI, factoryABIErr
}

func poolABIInstance() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}

func erc20ABIStringInstance() (abi.ABI, error) {
	erc20StringOnce.Do(func() {
		erc20String, erc20StringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20String, erc20StringErr
}

func erc20ABIBytes32Instance() (abi.ABI, error) {
	erc20B32Once.Do(func() {
		erc20B32, erc20B32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20B32, erc20B32Err
}
