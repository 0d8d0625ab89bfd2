package models

import (
	"strings"
)

// Address 小写十六进制地址，作为缓存 key 与排行榜主键
type Address string

func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

func (a Address) String() string {
	return string(a)
}

// Short 0x...后五位，用于无名称时的展示
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 5 {
		return s
	}
	return "0x..." + s[len(s)-5:]
}

// AddressSet 按插入顺序去重的地址集合
type AddressSet struct {
	order []Address
	index map[Address]struct{}
}

func NewAddressSet(addrs ...string) *AddressSet {
	s := &AddressSet{index: make(map[Address]struct{}, len(addrs))}
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// Add 加入地址，返回是否为新地址；空地址忽略
func (s *AddressSet) Add(raw string) bool {
	addr := NormalizeAddress(raw)
	if addr == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[Address]struct{})
	}
	if _, ok := s.index[addr]; ok {
		return false
	}
	s.index[addr] = struct{}{}
	s.order = append(s.order, addr)
	return true
}

// Union 合并另一个集合，保持先后顺序
func (s *AddressSet) Union(other *AddressSet) {
	if other == nil {
		return
	}
	for _, a := range other.order {
		s.Add(string(a))
	}
}

func (s *AddressSet) Contains(raw string) bool {
	_, ok := s.index[NormalizeAddress(raw)]
	return ok
}

func (s *AddressSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Items 返回地址副本
func (s *AddressSet) Items() []Address {
	if s == nil {
		return nil
	}
	out := make([]Address, len(s.order))
	copy(out, s.order)
	return out
}
