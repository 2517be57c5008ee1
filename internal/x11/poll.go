package x11

import (
	"context"
	"encoding/binary"
	"math/bits"

	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/input"

	"rawmouse/internal/platform"
)

// poll listens for X events in the background and forwards the ones the
// session cares about as platform events.
func (w *Window) poll(ctx context.Context) {
	defer close(w.events)
	defer close(w.errors)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.xEvents:
			if !ok {
				w.emitError(ErrConnectionDied)
				return
			}
			w.dispatch(ev)
		}
	}
}

// dispatch translates one X event into a platform event. Raw motion arrives
// wrapped in a generic event; everything else is a core event.
func (w *Window) dispatch(ev x.GenericEvent) {
	switch ev.GetEventCode() {
	case x.KeyPressEventCode:
		e, err := x.NewKeyPressEvent(ev)
		if err != nil {
			return
		}
		w.emit(platform.KeyEvent{Code: uint32(e.Detail)})
	case x.MotionNotifyEventCode:
		// Absolute position, window coordinates. Delivered while the pointer
		// grab is held.
		e, err := x.NewMotionNotifyEvent(ev)
		if err != nil {
			return
		}
		w.emit(platform.MotionEvent{X: int(e.EventX), Y: int(e.EventY)})
	case x.GeGenericEventCode:
		e, err := x.NewGeGenericEvent(ev)
		if err != nil {
			return
		}
		if e.Extension != w.xiOpcode || e.EventType != input.RawMotionEventCode {
			return
		}
		dx, dy, ok := decodeRawMotion(e.Data)
		if !ok {
			// No X/Y valuator data in this report; filtered non-event.
			return
		}
		w.emit(platform.DeltaEvent{Dx: dx, Dy: dy})
	case x.ClientMessageEventCode:
		e, err := x.NewClientMessageEvent(ev)
		if err != nil {
			return
		}
		if e.Type == w.wmProtocols && e.Data.GetData32()[0] == uint32(w.wmDelete) {
			w.emit(platform.CloseEvent{})
		}
	case x.DestroyNotifyEventCode:
		e, err := x.NewDestroyNotifyEvent(ev)
		if err != nil {
			return
		}
		if e.Window == w.win {
			w.emit(platform.CloseEvent{})
		}
	}
}

// Offsets into the generic-event body of an XInput2 raw event: device id
// (2), time (4), detail (4), source id (2), then the valuator word count at
// 12, flags, four pad bytes, and the mask words at 22.
const (
	rawValuatorsLenOffset = 12
	rawMaskOffset         = 22
)

// decodeRawMotion extracts the unaccelerated X/Y deltas from the body of an
// XInput2 raw event. After the mask words come two fixed-point value lists,
// accelerated then raw; each set mask bit consumes one entry of each list,
// in axis order. Reports without X or Y data are discarded.
func decodeRawMotion(body []byte) (float64, float64, bool) {
	if len(body) < rawMaskOffset {
		return 0, 0, false
	}
	maskWords := int(binary.LittleEndian.Uint16(body[rawValuatorsLenOffset:]))
	maskEnd := rawMaskOffset + maskWords*4
	if maskWords == 0 || len(body) < maskEnd {
		return 0, 0, false
	}
	total := 0
	for i := 0; i < maskWords; i += 1 {
		total += bits.OnesCount32(binary.LittleEndian.Uint32(body[rawMaskOffset+i*4:]))
	}
	rawOffset := maskEnd + total*8
	if len(body) < rawOffset+total*8 {
		return 0, 0, false
	}

	var dx, dy float64
	ok := false
	idx := 0
	for axis := 0; axis < maskWords*32; axis += 1 {
		word := binary.LittleEndian.Uint32(body[rawMaskOffset+(axis>>5)*4:])
		if word&(1<<(uint(axis)&31)) == 0 {
			continue
		}
		switch axis {
		case 0:
			dx = fixedToFloat(body[rawOffset+idx*8:])
			ok = true
		case 1:
			dy = fixedToFloat(body[rawOffset+idx*8:])
			ok = true
		}
		idx += 1
	}
	return dx, dy, ok
}

// fixedToFloat converts a wire-encoded 32.32 fixed-point value to a float64.
func fixedToFloat(data []byte) float64 {
	integral := int32(binary.LittleEndian.Uint32(data))
	frac := binary.LittleEndian.Uint32(data[4:])
	return float64(integral) + float64(frac)/(1<<32)
}

// emit forwards an event without blocking the poll loop; if the session has
// stopped reading, events are dropped instead of parking the goroutine.
func (w *Window) emit(evt platform.Event) {
	select {
	case w.events <- evt:
	default:
		w.logger.Warn("Event channel full, dropping %T", evt)
	}
}

func (w *Window) emitError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
