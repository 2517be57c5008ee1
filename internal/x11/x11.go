// Package x11 implements the X11 capture window. The window itself uses the
// core protocol; raw pointer motion comes from the XInput2 extension, which
// bypasses the acceleration and clamping applied to regular pointer events.
package x11

import (
	"context"
	"encoding/binary"
	"fmt"

	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/input"
	"github.com/pkg/errors"

	"rawmouse/internal/log"
	"rawmouse/internal/platform"
)

// Default window geometry, used when the profile has no override.
const (
	DefaultX = 400
	DefaultY = 400
	DefaultW = 200
	DefaultH = 200
)

// Event channel sizes.
const (
	channelSize      = 256
	errorChannelSize = 8
)

// ErrConnectionDied is reported when the connection with the X server closes
// underneath us.
var ErrConnectionDied = errors.New("connection with X server closed")

// Pointer grab error names, indexed by grab status.
var pointerGrabErrors = []string{
	"Success",
	"Already grabbed",
	"Invalid time",
	"Not viewable",
	"Frozen",
}

// Window is a single top-level X11 window that reports raw pointer motion
// while the pointer is grabbed.
type Window struct {
	conn   *x.Conn
	root   x.Window
	win    x.Window
	width  uint16
	height uint16

	// Major opcode of the XInput extension, for matching generic events.
	xiOpcode uint8

	wmProtocols x.Atom
	wmDelete    x.Atom

	xEvents chan x.GenericEvent
	events  chan platform.Event
	errors  chan error
	logger  *log.Logger
}

// NewWindow connects to the X server, creates the capture window and starts
// the event poll loop. The poll loop stops when ctx is cancelled or the
// connection dies.
func NewWindow(ctx context.Context, geo platform.Geometry, title string, logger *log.Logger) (*Window, error) {
	conn, err := x.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "connect to X server")
	}
	extReply, err := x.QueryExtension(conn, "XInputExtension").Reply(conn)
	if err != nil || !extReply.Present {
		conn.Close()
		return nil, fmt.Errorf("%w: XInput extension missing", platform.ErrDeviceRegistration)
	}

	screen := conn.GetDefaultScreen()
	wid, err := conn.AllocID()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: allocate window id: %s", platform.ErrWindowCreation, err)
	}
	win := x.Window(wid)
	err = x.CreateWindowChecked(
		conn,
		screen.RootDepth,
		win,
		screen.Root,
		int16(geo.X),
		int16(geo.Y),
		uint16(geo.W),
		uint16(geo.H),
		1,
		x.WindowClassInputOutput,
		screen.RootVisual,
		x.CWBackPixel|x.CWEventMask,
		[]uint32{
			screen.WhitePixel,
			x.EventMaskExposure |
				x.EventMaskKeyPress |
				x.EventMaskStructureNotify,
		},
	).Check(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", platform.ErrWindowCreation, err)
	}

	w := &Window{
		conn:     conn,
		root:     screen.Root,
		win:      win,
		width:    uint16(geo.W),
		height:   uint16(geo.H),
		xiOpcode: extReply.MajorOpcode,
		xEvents:  make(chan x.GenericEvent, channelSize),
		events:   make(chan platform.Event, channelSize),
		errors:   make(chan error, errorChannelSize),
		logger:   logger,
	}
	if err := w.setupWindow(title); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", platform.ErrWindowCreation, err)
	}

	// Announce XI2 support before selecting raw events; servers reject XI2
	// masks from clients that never did.
	reply, err := input.XIQueryVersion(conn, 2, 2).Reply(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: query xinput version: %s", platform.ErrDeviceRegistration, err)
	}
	logger.Debug("X server supports XInput %d.%d", reply.MajorVersion, reply.MinorVersion)

	conn.AddEventChan(w.xEvents)
	go w.poll(ctx)
	return w, nil
}

// setupWindow sets the window title, installs the WM_DELETE_WINDOW protocol
// and maps the window. Without the protocol the window manager would kill the
// client outright on close and the loop would have no exit notification.
func (w *Window) setupWindow(title string) error {
	atomString, err := w.conn.GetAtom("STRING")
	if err != nil {
		return errors.Wrap(err, "get STRING atom")
	}
	atomAtom, err := w.conn.GetAtom("ATOM")
	if err != nil {
		return errors.Wrap(err, "get ATOM atom")
	}
	atomWMName, err := w.conn.GetAtom("WM_NAME")
	if err != nil {
		return errors.Wrap(err, "get WM_NAME atom")
	}
	err = x.ChangePropertyChecked(
		w.conn,
		x.PropModeReplace,
		w.win,
		atomWMName,
		atomString,
		8,
		[]byte(title),
	).Check(w.conn)
	if err != nil {
		return errors.Wrap(err, "set title")
	}

	w.wmProtocols, err = w.conn.GetAtom("WM_PROTOCOLS")
	if err != nil {
		return errors.Wrap(err, "get WM_PROTOCOLS atom")
	}
	w.wmDelete, err = w.conn.GetAtom("WM_DELETE_WINDOW")
	if err != nil {
		return errors.Wrap(err, "get WM_DELETE_WINDOW atom")
	}
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(w.wmDelete))
	err = x.ChangePropertyChecked(
		w.conn,
		x.PropModeReplace,
		w.win,
		w.wmProtocols,
		atomAtom,
		32,
		data,
	).Check(w.conn)
	if err != nil {
		return errors.Wrap(err, "set WM_PROTOCOLS")
	}
	return x.MapWindowChecked(w.conn, w.win).Check(w.conn)
}

// Events returns the window's event stream.
func (w *Window) Events() <-chan platform.Event {
	return w.events
}

// Errors returns the window's error stream.
func (w *Window) Errors() <-chan error {
	return w.errors
}

// Confine grabs the pointer, selects raw motion reporting for all master
// pointer devices and warps the pointer to the window center.
func (w *Window) Confine() error {
	reply, err := x.GrabPointer(
		w.conn,
		true,
		w.win,
		uint16(x.EventMaskPointerMotion),
		x.GrabModeAsync,
		x.GrabModeAsync,
		x.None,
		x.None,
		x.TimeCurrentTime,
	).Reply(w.conn)
	if err != nil {
		return errors.Wrap(err, "grab pointer")
	}
	if reply.Status != x.GrabStatusSuccess {
		return errors.Errorf("grab pointer: %s", pointerGrabErrors[reply.Status])
	}
	if err := w.selectRawMotion(true); err != nil {
		_ = x.UngrabPointerChecked(w.conn, x.TimeCurrentTime).Check(w.conn)
		return err
	}
	return w.Recenter()
}

// Release detaches raw motion reporting and returns the pointer to the X
// server.
func (w *Window) Release() error {
	if err := w.selectRawMotion(false); err != nil {
		return err
	}
	return x.UngrabPointerChecked(w.conn, x.TimeCurrentTime).Check(w.conn)
}

// Recenter warps the pointer to the window center.
func (w *Window) Recenter() error {
	return x.WarpPointerChecked(
		w.conn,
		x.None,
		w.win,
		0, 0, 0, 0,
		int16(w.width/2),
		int16(w.height/2),
	).Check(w.conn)
}

// Close destroys the window and shuts down the X connection, which also
// stops the poll loop.
func (w *Window) Close() error {
	err := x.DestroyWindowChecked(w.conn, w.win).Check(w.conn)
	w.conn.Close()
	return err
}

// selectRawMotion attaches or detaches the RawMotion event mask for all
// master devices on the root window.
func (w *Window) selectRawMotion(enable bool) error {
	var mask uint32
	if enable {
		mask = input.XIEventMaskRawMotion
	}
	err := input.XISelectEventsChecked(w.conn, w.root, []input.EventMask{
		{
			DeviceId: input.DeviceAllMaster,
			Mask:     []uint32{mask},
		},
	}).Check(w.conn)
	if err != nil {
		return fmt.Errorf("%w: %s", platform.ErrDeviceRegistration, err)
	}
	return nil
}
