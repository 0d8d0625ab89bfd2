package ens

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazylions/lazy-leaderboard/internal/models"
)

func TestNameHash(t *testing.T) {
	assert.Equal(t, [32]byte{}, NameHash(""))
	assert.Equal(t,
		common.HexToHash("0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"),
		common.Hash(NameHash("eth")))
	assert.Equal(t,
		common.HexToHash("0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"),
		common.Hash(NameHash("foo.eth")))
}

func TestReverseNode(t *testing.T) {
	assert.Equal(t,
		NameHash("8943c7bac1914c9a7aba750bf2b6b09fd21037e0.addr.reverse"),
		ReverseNode("0x8943C7BAC1914C9A7ABA750BF2B6B09FD21037E0"))
}

// fakeChain 按 selector + node 返回预置结果
type fakeChain struct {
	registry  common.Address
	resolvers map[[32]byte]common.Address
	names     map[[32]byte]string
	addrs     map[[32]byte]common.Address
	err       error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		registry:  common.HexToAddress(DefaultRegistry),
		resolvers: map[[32]byte]common.Address{},
		names:     map[[32]byte]string{},
		addrs:     map[[32]byte]common.Address{},
	}
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	var node [32]byte
	copy(node[:], msg.Data[4:36])
	selector := msg.Data[:4]

	regABI, _ := registryABIInstance()
	resABI, _ := resolverABIInstance()

	switch {
	case *msg.To == f.registry && bytes.Equal(selector, regABI.Methods["resolver"].ID):
		r, ok := f.resolvers[node]
		if !ok {
			r = common.Address{}
		}
		return regABI.Methods["resolver"].Outputs.Pack(r)
	case bytes.Equal(selector, resABI.Methods["name"].ID):
		return resABI.Methods["name"].Outputs.Pack(f.names[node])
	case bytes.Equal(selector, resABI.Methods["addr"].ID):
		return resABI.Methods["addr"].Outputs.Pack(f.addrs[node])
	}
	return nil, nil
}

const (
	aliceAddr     = "0x1111111111111111111111111111111111111111"
	publicResolve = "0x2222222222222222222222222222222222222222"
)

func setupAlice(f *fakeChain, forward common.Address) {
	resolver := common.HexToAddress(publicResolve)
	rev := ReverseNode(aliceAddr)
	fwd := NameHash("alice.eth")

	f.resolvers[rev] = resolver
	f.names[rev] = "alice.eth"
	f.resolvers[fwd] = resolver
	f.addrs[fwd] = forward
}

func TestResolver_LookupAddress(t *testing.T) {
	f := newFakeChain()
	setupAlice(f, common.HexToAddress(aliceAddr))

	r := NewResolver(f, "")
	name, found, err := r.LookupAddress(context.Background(), models.Address(aliceAddr))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice.eth", name)
}

func TestResolver_NoReverseRecord(t *testing.T) {
	r := NewResolver(newFakeChain(), DefaultRegistry)

	name, found, err := r.LookupAddress(context.Background(), models.Address(aliceAddr))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, name)
}

func TestResolver_ForwardMismatch(t *testing.T) {
	f := newFakeChain()
	setupAlice(f, common.HexToAddress("0x3333333333333333333333333333333333333333"))

	_, found, err := NewResolver(f, "").LookupAddress(context.Background(), models.Address(aliceAddr))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolver_CallError(t *testing.T) {
	f := newFakeChain()
	f.err = errors.New("rpc down")

	_, found, err := NewResolver(f, "").LookupAddress(context.Background(), models.Address(aliceAddr))
	assert.Error(t, err)
	assert.False(t, found)
}

func TestResolver_InvalidAddress(t *testing.T) {
	_, _, err := NewResolver(newFakeChain(), "").LookupAddress(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestDial_NoRPC(t *testing.T) {
	_, err := Dial(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoRPC)
}
