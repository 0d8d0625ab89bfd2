package ens

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// NameHash EIP-137 namehash
func NameHash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		copy(node[:], crypto.Keccak256(node[:], labelHash))
	}
	return node
}

// ReverseNode 地址反向记录的节点：<hex>.addr.reverse
func ReverseNode(address string) [32]byte {
	hex := strings.TrimPrefix(strings.ToLower(address), "0x")
	return NameHash(hex + ".addr.reverse")
}
