// Package gain holds the tunable constants of a motor control loop.
//
//   - [Profile]: P/I/D/feed-forward gains, output range and tolerance for one slot
//   - [Motion]: motion-profile constants (cruise velocity, acceleration, integral
//     zone) plus the vendor-specific [Extra]
//
// Every field is stored atomically so a tuning goroutine may write while the
// control loop reads. Fields are independent; no multi-field snapshot is
// guaranteed, and a reader may see an edit one cycle late.
package gain
