package protocol

// FifoBuffer is a circular byte buffer shared between the USB servicer and
// foreground code. One slot is reserved to tell full from empty, so the
// backing array holds capacity+1 bytes and Used()+Free() == Capacity().
//
// FifoBuffer does no locking of its own. Callers serialize access.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer able to hold capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &FifoBuffer{
		buf:  make([]byte, capacity+1),
		size: capacity + 1,
	}
}

// Capacity returns the number of bytes the buffer can hold
func (f *FifoBuffer) Capacity() int {
	return f.size - 1
}

// Write appends data to the FIFO buffer and returns the number of bytes
// copied. Bytes that do not fit are dropped.
func (f *FifoBuffer) Write(data []byte) int {
	n := len(data)
	if free := f.Free(); n > free {
		n = free
	}
	for written := 0; written < n; {
		end := f.size
		if f.read > f.write {
			end = f.read - 1
		} else if f.read == 0 {
			end = f.size - 1
		}
		c := copy(f.buf[f.write:end], data[written:n])
		written += c
		f.write = (f.write + c) % f.size
	}
	return n
}

// Put appends a single byte. It reports false when the buffer is full.
func (f *FifoBuffer) Put(b byte) bool {
	next := (f.write + 1) % f.size
	if next == f.read {
		return false
	}
	f.buf[f.write] = b
	f.write = next
	return true
}

// Get removes and returns the oldest byte. ok is false when empty.
func (f *FifoBuffer) Get() (b byte, ok bool) {
	if f.read == f.write {
		return 0, false
	}
	b = f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return b, true
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	n := len(data)
	if used := f.Used(); n > used {
		n = used
	}
	for read := 0; read < n; {
		end := f.size
		if f.write > f.read {
			end = f.write
		}
		c := copy(data[read:n], f.buf[f.read:end])
		read += c
		f.read = (f.read + c) % f.size
	}
	return n
}

// Used returns the number of bytes stored in the buffer
func (f *FifoBuffer) Used() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	return f.Used()
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Used() - 1
}

// Peek returns the byte at offset from the read position without
// consuming it. Offsets past the stored data return 0.
func (f *FifoBuffer) Peek(offset int) byte {
	if offset < 0 || offset >= f.Used() {
		return 0
	}
	return f.buf[(f.read+offset)%f.size]
}

// Find returns the offset of the first b at or after from.
// It returns Used() when b is not present.
func (f *FifoBuffer) Find(b byte, from int) int {
	used := f.Used()
	if from < 0 {
		from = 0
	}
	for i := from; i < used; i++ {
		if f.buf[(f.read+i)%f.size] == b {
			return i
		}
	}
	return used
}

// Data returns available data as a slice
// When wrapped, this copies data into a contiguous slice
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	result := make([]byte, f.Used())
	firstLen := copy(result, f.buf[f.read:])
	copy(result[firstLen:], f.buf[:f.write])
	return result
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if used := f.Used(); n > used {
		n = used
	}
	if n <= 0 {
		return
	}
	f.read = (f.read + n) % f.size
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// IsFull returns true if no more bytes can be written
func (f *FifoBuffer) IsFull() bool {
	return (f.write+1)%f.size == f.read
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
