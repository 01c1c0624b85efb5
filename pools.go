package vmap

import "sync"

var encodeBufPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func getEncodeBuf() []byte {
	return encodeBufPool.Get().([]byte)
}

func putEncodeBuf(b []byte) {
	encodeBufPool.Put(b[:0])
}
