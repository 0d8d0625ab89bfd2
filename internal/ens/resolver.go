// Package ens resolves addresses to their primary ENS name.
package ens

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/lazylions/lazy-leaderboard/internal/models"
)

// DefaultRegistry ENS registry（主网）
const DefaultRegistry = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

var ErrNoRPC = errors.New("ens rpc url not configured")

// Caller 执行 eth_call
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Resolver struct {
	caller    Caller
	registry  common.Address
	rpcClient *rpc.Client
}

func NewResolver(caller Caller, registry string) *Resolver {
	if registry == "" {
		registry = DefaultRegistry
	}
	return &Resolver{
		caller:   caller,
		registry: common.HexToAddress(registry),
	}
}

// Dial 连接 RPC 节点并创建解析器
func Dial(ctx context.Context, rpcURL, registry string) (*Resolver, error) {
	if rpcURL == "" {
		return nil, ErrNoRPC
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ens rpc: %w", err)
	}

	r := NewResolver(ethclient.NewClient(rpcClient), registry)
	r.rpcClient = rpcClient
	return r, nil
}

func (r *Resolver) Close() {
	if r.rpcClient != nil {
		r.rpcClient.Close()
	}
}

// LookupAddress 反向解析地址的主名称，并校验正向解析指回同一地址。
// 没有反向记录或校验不通过时返回 found=false 且 err=nil。
func (r *Resolver) LookupAddress(ctx context.Context, address models.Address) (string, bool, error) {
	if !common.IsHexAddress(string(address)) {
		return "", false, fmt.Errorf("invalid address %q", address)
	}
	want := common.HexToAddress(string(address))

	node := ReverseNode(string(address))
	resolverAddr, err := r.resolverOf(ctx, node)
	if err != nil || resolverAddr == (common.Address{}) {
		return "", false, err
	}

	name, err := r.nameOf(ctx, resolverAddr, node)
	if err != nil || name == "" {
		return "", false, err
	}

	fwdNode := NameHash(strings.ToLower(name))
	fwdResolver, err := r.resolverOf(ctx, fwdNode)
	if err != nil || fwdResolver == (common.Address{}) {
		return "", false, err
	}

	got, err := r.addrOf(ctx, fwdResolver, fwdNode)
	if err != nil {
		return "", false, err
	}
	if got != want {
		return "", false, nil
	}

	return name, true, nil
}

func (r *Resolver) resolverOf(ctx context.Context, node [32]byte) (common.Address, error) {
	contractABI, err := registryABIInstance()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse registry abi: %w", err)
	}
	values, err := r.call(ctx, r.registry, contractABI, "resolver", node)
	if err != nil || len(values) == 0 {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected resolver type %T", values[0])
	}
	return addr, nil
}

func (r *Resolver) nameOf(ctx context.Context, resolver common.Address, node [32]byte) (string, error) {
	contractABI, err := resolverABIInstance()
	if err != nil {
		return "", fmt.Errorf("parse resolver abi: %w", err)
	}
	values, err := r.call(ctx, resolver, contractABI, "name", node)
	if err != nil || len(values) == 0 {
		return "", err
	}
	name, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected name type %T", values[0])
	}
	return name, nil
}

func (r *Resolver) addrOf(ctx context.Context, resolver common.Address, node [32]byte) (common.Address, error) {
	contractABI, err := resolverABIInstance()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse resolver abi: %w", err)
	}
	values, err := r.call(ctx, resolver, contractABI, "addr", node)
	if err != nil || len(values) == 0 {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected addr type %T", values[0])
	}
	return addr, nil
}

// call 空返回（目标不是合约）视为没有结果
func (r *Resolver) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	if len(out) == 0 {
		return nil, nil
	}

	values, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
