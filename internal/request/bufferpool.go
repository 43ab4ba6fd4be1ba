package request

import "sync"

const (
	// chunkSize is how much the frame reader asks for per Read call.
	chunkSize = 1000

	// accumulatorSize covers a typical browser request without growing.
	accumulatorSize = 4096
)

// bufferPool hands out the two buffers a frame read needs: the fixed read
// chunk and the growing accumulator.
type bufferPool struct {
	chunks       sync.Pool
	accumulators sync.Pool
}

var pool = &bufferPool{
	chunks: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, chunkSize)
			return &buf
		},
	},
	accumulators: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 0, accumulatorSize)
			return &buf
		},
	},
}

func getChunk() *[]byte {
	return pool.chunks.Get().(*[]byte)
}

func putChunk(buf *[]byte) {
	pool.chunks.Put(buf)
}

func getAccumulator() *[]byte {
	buf := pool.accumulators.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// putAccumulator returns the buffer to the pool unless it grew well past
// the usual size; those are left to the GC.
func putAccumulator(buf *[]byte) {
	if cap(*buf) > 4*accumulatorSize {
		return
	}
	pool.accumulators.Put(buf)
}
