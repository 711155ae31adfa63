// Package mathutil provides the small numeric helpers used by control loops
// and joystick handling:
//
//   - [Limit] and [LimitRange]: hard saturation of a value
//   - [FitDeadband]: joystick deadband with rescaled output
//   - [WrapToCircle]: angle normalisation
//   - [WithinTolerance]: setpoint checks
//   - [DegreesToTicks] / [TicksToDegrees]: encoder unit conversion
package mathutil
