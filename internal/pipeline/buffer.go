package pipeline

// skid is a one-deep holding register in front of the head stage.
type skid struct {
	s     Sample
	valid bool
}

func (k *skid) full() bool    { return k.valid }
func (k *skid) peek() Sample  { return k.s }
func (k *skid) push(s Sample) { k.s, k.valid = s, true }
func (k *skid) pop()          { k.valid = false }
func (k *skid) clear()        { *k = skid{} }

// RingBuffer is a growable FIFO of raw sample values used by block drivers
// to hold input that the chain has not accepted yet. It is not safe for
// concurrent use; the tick domain is single-threaded.
type RingBuffer struct {
	data     []int64
	capacity int
	size     int
	readPos  int
	writePos int
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}

	return &RingBuffer{
		data:     make([]int64, capacity),
		capacity: capacity,
	}
}

// Write appends samples, growing the buffer if needed.
func (b *RingBuffer) Write(samples []int64) {
	needed := len(samples)
	if needed == 0 {
		return
	}

	if b.size+needed > b.capacity {
		b.grow(b.size + needed)
	}

	for _, sample := range samples {
		b.data[b.writePos] = sample
		b.writePos = (b.writePos + 1) % b.capacity
		b.size++
	}
}

// Peek returns the oldest sample without removing it.
func (b *RingBuffer) Peek() (int64, bool) {
	if b.size == 0 {
		return 0, false
	}
	return b.data[b.readPos], true
}

// Discard removes up to n samples from the front.
func (b *RingBuffer) Discard(n int) {
	n = min(n, b.size)
	b.readPos = (b.readPos + n) % b.capacity
	b.size -= n
}

// Read retrieves up to n samples from the buffer.
func (b *RingBuffer) Read(n int) []int64 {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []int64{}
	}

	result := make([]int64, n)
	for i := range n {
		result[i] = b.data[b.readPos]
		b.readPos = (b.readPos + 1) % b.capacity
	}
	b.size -= n

	return result
}

// Available returns the number of samples available for reading.
func (b *RingBuffer) Available() int { return b.size }

// Capacity returns the current buffer capacity.
func (b *RingBuffer) Capacity() int { return b.capacity }

// Clear removes all samples from the buffer.
func (b *RingBuffer) Clear() {
	b.size = 0
	b.readPos = 0
	b.writePos = 0
}

// grow increases the buffer capacity to at least minCapacity.
func (b *RingBuffer) grow(minCapacity int) {
	newCapacity := b.capacity
	for newCapacity < minCapacity {
		newCapacity *= bufferGrowthFactor
	}

	newData := make([]int64, newCapacity)
	if b.size > 0 {
		if b.readPos < b.writePos {
			copy(newData, b.data[b.readPos:b.writePos])
		} else {
			n1 := copy(newData, b.data[b.readPos:])
			copy(newData[n1:], b.data[:b.writePos])
		}
	}

	b.data = newData
	b.capacity = newCapacity
	b.readPos = 0
	b.writePos = b.size
}
