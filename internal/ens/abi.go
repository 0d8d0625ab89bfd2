package ens

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const registryABIJSON = `[
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "resolver", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"}
]`

const resolverABIJSON = `[
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "addr", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"}
]`

var (
	registryABI     abi.ABI
	registryABIOnce sync.Once
	registryABIErr  error
	resolverABI     abi.ABI
	resolverABIOnce sync.Once
	resolverABIErr  error
)

func registryABIInstance() (abi.ABI, error) {
	registryABIOnce.Do(func() {
		registryABI, registryABIErr = abi.JSON(strings.NewReader(registryABIJSON))
	})
	return registryABI, registryABIErr
}

func resolverABIInstance() (abi.ABI, error) {
	resolverABIOnce.Do(func() {
		resolverABI, resolverABIErr = abi.JSON(strings.NewReader(resolverABIJSON))
	})
	return resolverABI, resolverABIErr
}
