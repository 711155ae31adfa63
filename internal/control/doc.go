// Package control computes bounded closed-loop output for motor controllers
// that do not run PID on the device itself.
//
//   - [PID]: one slot's accumulator, reading its gains from a [gain.Profile]
//     every cycle so live edits apply on the next call
//   - [Evaluator]: one PID per profile slot, driven by the selection in a
//     [profile.Store]
//
// # Usage
//
//	ev, _ := control.NewEvaluator(20*time.Millisecond, positionGains, velocityGains)
//	ev.SupplyFeedbackMode(profile.Position, encoder.Position)
//	ev.Select(profile.Position.Index())
//	ev.SetSetpoint(42)
//	ev.Enable()
//	// every loop period:
//	motor.Set(ev.Calculate())
//
// # Thread Safety
//
// Calculate must be called from a single control goroutine. Selection,
// setpoints, feedback registration, enable/disable and profile edits may
// come from any goroutine; each is a single atomic field.
package control
