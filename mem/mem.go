// Package mem has small containers for reusing allocations.
package mem

// DoubleBufferedSlice lets a producer append to Back while a consumer works
// through Front. Swap hands the consumer the accumulated Back and recycles the
// old Front's storage for the next round.
type DoubleBufferedSlice[T any] struct {
	Front, Back []T
}

// Swap exchanges the buffers. The old Front is cleared before being reused so
// that it doesn't keep its elements alive.
func (db *DoubleBufferedSlice[T]) Swap() {
	clear(db.Front)
	db.Front, db.Back = db.Back, db.Front[:0]
}
