package x11

import (
	"encoding/binary"
	"math/bits"
	"testing"

	"rawmouse/internal/log"
	"rawmouse/internal/platform"
)

type fixed struct {
	integral int32
	frac     uint32
}

// rawMotionBody builds the generic-event body of an XInput2 raw event: the
// fixed header, the valuator mask words, a zeroed accelerated value list and
// the given raw values.
func rawMotionBody(t *testing.T, mask []uint32, raw []fixed) []byte {
	t.Helper()
	total := 0
	for _, word := range mask {
		total += bits.OnesCount32(word)
	}
	if total != len(raw) {
		t.Fatalf("mask selects %d axes, got %d raw values", total, len(raw))
	}
	body := make([]byte, rawMaskOffset+len(mask)*4+total*16)
	binary.LittleEndian.PutUint16(body[rawValuatorsLenOffset:], uint16(len(mask)))
	for i, word := range mask {
		binary.LittleEndian.PutUint32(body[rawMaskOffset+i*4:], word)
	}
	rawOffset := rawMaskOffset + len(mask)*4 + total*8
	for i, v := range raw {
		binary.LittleEndian.PutUint32(body[rawOffset+i*8:], uint32(v.integral))
		binary.LittleEndian.PutUint32(body[rawOffset+i*8+4:], v.frac)
	}
	return body
}

func TestDecodeRawMotion(t *testing.T) {
	body := rawMotionBody(t, []uint32{0b11}, []fixed{
		{integral: 5, frac: 1 << 30}, // 5.25
		{integral: -2, frac: 0},
	})
	dx, dy, ok := decodeRawMotion(body)
	if !ok {
		t.Fatal("expected a delta")
	}
	if dx != 5.25 || dy != -2 {
		t.Fatalf("got (%v, %v), want (5.25, -2)", dx, dy)
	}
}

func TestDecodeRawMotionExtraAxes(t *testing.T) {
	// Scroll valuators share the report; only axes 0 and 1 are motion.
	body := rawMotionBody(t, []uint32{0b1101}, []fixed{
		{integral: 3},
		{integral: 7},
		{integral: 120},
	})
	dx, dy, ok := decodeRawMotion(body)
	if !ok {
		t.Fatal("expected a delta")
	}
	if dx != 3 || dy != 0 {
		t.Fatalf("got (%v, %v), want (3, 0)", dx, dy)
	}
}

func TestDecodeRawMotionNoMotionAxes(t *testing.T) {
	body := rawMotionBody(t, []uint32{0b100}, []fixed{{integral: 120}})
	if _, _, ok := decodeRawMotion(body); ok {
		t.Fatal("report without X/Y axes should be discarded")
	}
}

func TestDecodeRawMotionTruncatedBody(t *testing.T) {
	body := rawMotionBody(t, []uint32{0b11}, []fixed{{integral: 1}, {integral: 2}})
	for _, n := range []int{0, 10, rawMaskOffset, len(body) - 1} {
		if _, _, ok := decodeRawMotion(body[:n]); ok {
			t.Fatalf("truncated body of %d bytes produced a delta", n)
		}
	}
}

func TestEmitNeverBlocks(t *testing.T) {
	logger := log.DefaultLogger(log.ERROR, "")
	w := &Window{
		events: make(chan platform.Event, 1),
		logger: &logger,
	}
	// Nothing reads the channel; both sends must return, the second by
	// dropping its event.
	w.emit(platform.DeltaEvent{Dx: 1})
	w.emit(platform.DeltaEvent{Dx: 2})
	if len(w.events) != 1 {
		t.Fatalf("expected 1 buffered event, got %d", len(w.events))
	}
}
