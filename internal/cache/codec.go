package cache

import (
	"github.com/vmihailenco/msgpack/v5"
)

type Encoder[T any] func(value T) ([]byte, error)

type Decoder[T any] func(data []byte) (T, error)

func MsgpackEncoder[T any]() Encoder[T] {
	return func(value T) ([]byte, error) {
		return msgpack.Marshal(value)
	}
}

func MsgpackDecoder[T any]() Decoder[T] {
	return func(data []byte) (T, error) {
		var value T
		err := msgpack.Unmarshal(data, &value)
		return value, err
	}
}
