// Package idgen mints account identifiers without a central sequence
// authority. An identifier is the decimal concatenation of the current
// unix time in seconds, a process-local counter taken modulo 10000, and
// a two-digit fragment derived from the host name. Collisions across
// processes are possible in theory; the unique constraints on the
// durable accounts table are the correctness backstop.
package idgen

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var counter atomic.Uint64

var hostFragment = func() string {
	name, err := os.Hostname()
	if err != nil {
		return "12"
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, name)
	if len(digits) < 2 {
		return "12"
	}
	return digits[:2]
}()

// Next returns a new identifier. It never blocks and never fails.
// Identifiers are unique within one process as long as fewer than
// 10000 are minted in a single second.
func Next() uint64 {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	seq := counter.Add(1) % 10000

	var b strings.Builder
	b.Grow(16)
	b.WriteString(ts)

	padded := strconv.FormatUint(seq, 10)
	for i := len(padded); i < 4; i++ {
		b.WriteByte('0')
	}
	b.WriteString(padded)
	b.WriteString(hostFragment)

	id, err := strconv.ParseUint(b.String(), 10, 64)
	if err != nil {
		// unreachable: the string is all digits and 16 chars long
		panic(err)
	}
	return id
}
