package service

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"
)

var idClock atomic.Int64

// newID returns a time-ordered id: a strictly increasing nanosecond prefix
// followed by random bytes, so ids issued later always sort lexicographically
// after earlier ones. Rows stamped within the same unix second (a chat turn's
// user/assistant pair) still read back in creation order under (ctime, id).
func newID() string {
	now := time.Now().UnixNano()
	for {
		last := idClock.Load()
		if now <= last {
			now = last + 1
		}
		if idClock.CompareAndSwap(last, now) {
			break
		}
	}
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(now))
	_, _ = rand.Read(buf[8:])
	return hex.EncodeToString(buf)
}
