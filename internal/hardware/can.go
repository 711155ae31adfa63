package hardware

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/san-kum/gainctl/internal/gain"
)

// Frame IDs are offset by the device number.
const (
	ConfigureBaseID uint32 = 0x600
	SelectBaseID    uint32 = 0x680
	maxDevice              = 0x3f
)

var ErrBadFrame = errors.New("hardware: malformed frame")

// Transmitter sends one CAN frame. *socketcan.Transmitter satisfies it.
type Transmitter interface {
	TransmitFrame(ctx context.Context, frame can.Frame) error
}

// CANActuator drives one controller over CAN. Configure frames carry
// [slot, param, f32 LE value, u16 LE timeout ms]; select frames carry
// [slot].
type CANActuator struct {
	tx      Transmitter
	device  uint8
	timeout time.Duration
	conn    net.Conn
}

func NewCANActuator(tx Transmitter, device uint8) (*CANActuator, error) {
	if device > maxDevice {
		return nil, fmt.Errorf("hardware: device %d exceeds %d", device, maxDevice)
	}
	return &CANActuator{tx: tx, device: device, timeout: gain.DefaultTimeout}, nil
}

// DialCAN opens a SocketCAN interface such as "can0" or "vcan0".
func DialCAN(ctx context.Context, iface string, device uint8) (*CANActuator, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	a, err := NewCANActuator(socketcan.NewTransmitter(conn), device)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.conn = conn
	return a, nil
}

func (a *CANActuator) Configure(slot int, param Param, value float64, timeout time.Duration) error {
	frame, err := EncodeConfigure(a.device, slot, param, value, timeout)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = a.timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.tx.TransmitFrame(ctx, frame)
}

func (a *CANActuator) SelectSlot(slot int) error {
	frame, err := EncodeSelect(a.device, slot)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	return a.tx.TransmitFrame(ctx, frame)
}

func (a *CANActuator) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// Command is a decoded actuator frame.
type Command struct {
	Kind    CallKind
	Device  uint8
	Slot    int
	Param   Param
	Value   float64
	Timeout time.Duration
}

func EncodeConfigure(device uint8, slot int, param Param, value float64, timeout time.Duration) (can.Frame, error) {
	if slot < 0 || slot > math.MaxUint8 {
		return can.Frame{}, fmt.Errorf("%w: slot %d", ErrBadFrame, slot)
	}
	if !param.Valid() {
		return can.Frame{}, fmt.Errorf("%w: %v", ErrBadFrame, param)
	}
	ms := timeout.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > math.MaxUint16 {
		ms = math.MaxUint16
	}

	var f can.Frame
	f.ID = ConfigureBaseID + uint32(device)
	f.Length = 8
	f.Data[0] = byte(slot)
	f.Data[1] = byte(param)
	binary.LittleEndian.PutUint32(f.Data[2:6], math.Float32bits(float32(value)))
	binary.LittleEndian.PutUint16(f.Data[6:8], uint16(ms))
	return f, nil
}

func EncodeSelect(device uint8, slot int) (can.Frame, error) {
	if slot < 0 || slot > math.MaxUint8 {
		return can.Frame{}, fmt.Errorf("%w: slot %d", ErrBadFrame, slot)
	}
	var f can.Frame
	f.ID = SelectBaseID + uint32(device)
	f.Length = 1
	f.Data[0] = byte(slot)
	return f, nil
}

// Decode parses a frame produced by EncodeConfigure or EncodeSelect.
func Decode(f can.Frame) (Command, error) {
	if err := f.Validate(); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	switch {
	case f.ID >= ConfigureBaseID && f.ID <= ConfigureBaseID+maxDevice:
		if f.Length != 8 {
			return Command{}, fmt.Errorf("%w: configure length %d", ErrBadFrame, f.Length)
		}
		p := Param(f.Data[1])
		if !p.Valid() {
			return Command{}, fmt.Errorf("%w: %v", ErrBadFrame, p)
		}
		return Command{
			Kind:    CallConfigure,
			Device:  uint8(f.ID - ConfigureBaseID),
			Slot:    int(f.Data[0]),
			Param:   p,
			Value:   float64(math.Float32frombits(binary.LittleEndian.Uint32(f.Data[2:6]))),
			Timeout: time.Duration(binary.LittleEndian.Uint16(f.Data[6:8])) * time.Millisecond,
		}, nil
	case f.ID >= SelectBaseID && f.ID <= SelectBaseID+maxDevice:
		if f.Length < 1 {
			return Command{}, fmt.Errorf("%w: empty select", ErrBadFrame)
		}
		return Command{
			Kind:   CallSelectSlot,
			Device: uint8(f.ID - SelectBaseID),
			Slot:   int(f.Data[0]),
		}, nil
	}
	return Command{}, fmt.Errorf("%w: id 0x%X", ErrBadFrame, f.ID)
}
