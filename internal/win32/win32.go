//go:build windows

// Package win32 implements the Windows capture window using the Raw Input
// API. Unlike WM_MOUSEMOVE, raw input reports relative deltas straight from
// the device, with no pointer acceleration applied.
package win32

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"rawmouse/internal/log"
	"rawmouse/internal/platform"
)

// Default window geometry, used when the profile has no override.
const (
	DefaultX = 400
	DefaultY = 400
	DefaultW = 300
	DefaultH = 300
)

const (
	wmDestroy = 0x0002
	wmClose   = 0x0010
	wmQuit    = 0x0012
	wmKeyDown = 0x0100
	wmInput   = 0x00FF

	pmRemove = 0x0001
	swShow   = 5

	wsOverlappedWindow = 0x00CF0000

	ridInput     = 0x10000003
	ridevRemove  = 0x00000001
	rimTypeMouse = 0

	// HID usage page/usage for generic desktop pointer devices.
	hidUsagePageGeneric = 0x01
	hidUsageMouse       = 0x02
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassExW        = user32.NewProc("RegisterClassExW")
	procCreateWindowExW         = user32.NewProc("CreateWindowExW")
	procDestroyWindow           = user32.NewProc("DestroyWindow")
	procDefWindowProcW          = user32.NewProc("DefWindowProcW")
	procShowWindow              = user32.NewProc("ShowWindow")
	procUpdateWindow            = user32.NewProc("UpdateWindow")
	procPeekMessageW            = user32.NewProc("PeekMessageW")
	procTranslateMessage        = user32.NewProc("TranslateMessage")
	procDispatchMessageW        = user32.NewProc("DispatchMessageW")
	procPostMessageW            = user32.NewProc("PostMessageW")
	procPostQuitMessage         = user32.NewProc("PostQuitMessage")
	procIsWindow                = user32.NewProc("IsWindow")
	procGetClientRect           = user32.NewProc("GetClientRect")
	procClientToScreen          = user32.NewProc("ClientToScreen")
	procClipCursor              = user32.NewProc("ClipCursor")
	procSetCursorPos            = user32.NewProc("SetCursorPos")
	procRegisterRawInputDevices = user32.NewProc("RegisterRawInputDevices")
	procGetRawInputData         = user32.NewProc("GetRawInputData")
	procGetModuleHandleW        = kernel32.NewProc("GetModuleHandleW")
)

type wndClassEx struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     windows.Handle
	HIcon         windows.Handle
	HCursor       windows.Handle
	HbrBackground windows.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       windows.Handle
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type point struct {
	X, Y int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type rawInputDevice struct {
	UsagePage uint16
	Usage     uint16
	Flags     uint32
	Target    windows.Handle
}

type rawInputHeader struct {
	Type   uint32
	Size   uint32
	Device windows.Handle
	WParam uintptr
}

type rawMouse struct {
	Flags            uint16
	_                uint16
	ButtonFlags      uint16
	ButtonData       uint16
	RawButtons       uint32
	LastX            int32
	LastY            int32
	ExtraInformation uint32
}

// Window is a single top-level Win32 window that receives raw mouse input.
// The window and its message pump live on one OS-locked goroutine; the
// confinement calls are global and may run from the session goroutine.
type Window struct {
	hwnd   windows.Handle
	geo    platform.Geometry
	events chan platform.Event
	errors chan error
	logger *log.Logger
	closed bool
}

// NewWindow creates the capture window and starts its message pump. It
// returns once the window exists.
func NewWindow(geo platform.Geometry, title string, logger *log.Logger) (*Window, error) {
	w := &Window{
		geo:    geo,
		events: make(chan platform.Event, 256),
		errors: make(chan error, 8),
		logger: logger,
	}
	ready := make(chan error)
	go w.run(title, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

// Events returns the window's event stream.
func (w *Window) Events() <-chan platform.Event {
	return w.events
}

// Errors returns the window's error stream.
func (w *Window) Errors() <-chan error {
	return w.errors
}

// Confine clips the cursor to the window's client area, moves it to the
// center and registers for raw mouse input targeted at the window.
func (w *Window) Confine() error {
	clip, err := w.clientRectOnScreen()
	if err != nil {
		return err
	}
	// ClipCursor needs screen coords, not coords relative to the window.
	ret, _, callErr := procClipCursor.Call(uintptr(unsafe.Pointer(&clip)))
	if ret == 0 {
		return errors.Wrap(callErr, "clip cursor")
	}
	if err := w.Recenter(); err != nil {
		return err
	}
	dev := rawInputDevice{
		UsagePage: hidUsagePageGeneric,
		Usage:     hidUsageMouse,
		Target:    w.hwnd,
	}
	ret, _, callErr = procRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&dev)),
		1,
		unsafe.Sizeof(dev),
	)
	if ret == 0 {
		return fmt.Errorf("%w: %s", platform.ErrDeviceRegistration, callErr)
	}
	return nil
}

// Release unregisters the raw input device and removes the cursor clip.
func (w *Window) Release() error {
	dev := rawInputDevice{
		UsagePage: hidUsagePageGeneric,
		Usage:     hidUsageMouse,
		Flags:     ridevRemove,
	}
	ret, _, callErr := procRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&dev)),
		1,
		unsafe.Sizeof(dev),
	)
	if ret == 0 {
		return fmt.Errorf("%w: remove: %s", platform.ErrDeviceRegistration, callErr)
	}
	ret, _, callErr = procClipCursor.Call(0)
	if ret == 0 {
		return errors.Wrap(callErr, "release cursor clip")
	}
	return nil
}

// Recenter moves the cursor to the center of the window's client area.
func (w *Window) Recenter() error {
	clip, err := w.clientRectOnScreen()
	if err != nil {
		return err
	}
	ret, _, callErr := procSetCursorPos.Call(
		uintptr(clip.Left+(clip.Right-clip.Left)/2),
		uintptr(clip.Top+(clip.Bottom-clip.Top)/2),
	)
	if ret == 0 {
		return errors.Wrap(callErr, "set cursor position")
	}
	return nil
}

// Close asks the window to close. The pump thread performs the destruction
// and shuts down the event stream.
func (w *Window) Close() error {
	ret, _, callErr := procPostMessageW.Call(uintptr(w.hwnd), wmClose, 0, 0)
	if ret == 0 {
		return errors.Wrap(callErr, "post close message")
	}
	return nil
}

// clientRectOnScreen returns the window's client area in screen coordinates.
func (w *Window) clientRectOnScreen() (rect, error) {
	var r rect
	ret, _, callErr := procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return r, errors.Wrap(callErr, "get client rect")
	}
	topLeft := point{r.Left, r.Top}
	bottomRight := point{r.Right, r.Bottom}
	ret, _, callErr = procClientToScreen.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&topLeft)))
	if ret == 0 {
		return r, errors.Wrap(callErr, "client to screen")
	}
	ret, _, callErr = procClientToScreen.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&bottomRight)))
	if ret == 0 {
		return r, errors.Wrap(callErr, "client to screen")
	}
	return rect{topLeft.X, topLeft.Y, bottomRight.X, bottomRight.Y}, nil
}

// run creates the window and pumps messages until the window is destroyed.
// Win32 delivers messages to the thread that created the window, so both
// steps have to stay on one locked OS thread.
func (w *Window) run(title string, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.events)
	defer close(w.errors)

	if err := w.createWindow(title); err != nil {
		ready <- err
		return
	}
	ready <- nil

	var m msg
	for {
		ret, _, _ := procPeekMessageW.Call(
			uintptr(unsafe.Pointer(&m)),
			0, 0, 0,
			pmRemove,
		)
		if int32(ret) != 0 {
			if m.Message == wmQuit {
				w.emitClose()
				return
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		} else {
			time.Sleep(time.Millisecond)
		}

		// The window can die without a WM_QUIT (e.g. external process
		// termination of the owner); poll its validity like the close
		// condition of the original message loop.
		alive, _, _ := procIsWindow.Call(uintptr(w.hwnd))
		if alive == 0 {
			w.emitClose()
			return
		}
	}
}

// createWindow registers the window class and creates the capture window.
func (w *Window) createWindow(title string) error {
	className, err := windows.UTF16PtrFromString("RawmouseWindow")
	if err != nil {
		return fmt.Errorf("%w: %s", platform.ErrWindowCreation, err)
	}
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return fmt.Errorf("%w: %s", platform.ErrWindowCreation, err)
	}
	hInstance, _, _ := procGetModuleHandleW.Call(0)
	class := wndClassEx{
		CbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		LpfnWndProc:   windows.NewCallback(w.wndProc),
		HInstance:     windows.Handle(hInstance),
		LpszClassName: className,
	}
	ret, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&class)))
	if ret == 0 {
		return fmt.Errorf("%w: register class: %s", platform.ErrWindowCreation, callErr)
	}
	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(titlePtr)),
		wsOverlappedWindow,
		uintptr(w.geo.X),
		uintptr(w.geo.Y),
		uintptr(w.geo.W),
		uintptr(w.geo.H),
		0, 0, hInstance, 0,
	)
	if hwnd == 0 {
		return fmt.Errorf("%w: %s", platform.ErrWindowCreation, callErr)
	}
	w.hwnd = windows.Handle(hwnd)
	procShowWindow.Call(hwnd, swShow)
	procUpdateWindow.Call(hwnd)
	return nil
}

// wndProc handles window messages on the pump thread.
func (w *Window) wndProc(hwnd windows.Handle, message uint32, wparam, lparam uintptr) uintptr {
	switch message {
	case wmInput:
		w.handleRawInput(lparam)
		return 0
	case wmKeyDown:
		w.emit(platform.KeyEvent{Code: uint32(wparam)})
		return 0
	case wmClose:
		procDestroyWindow.Call(uintptr(hwnd))
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(message), wparam, lparam)
	return ret
}

// handleRawInput reads one raw input packet and forwards mouse motion.
// Non-mouse devices and all-zero motion reports are discarded here so that
// the session only ever sees real deltas.
func (w *Window) handleRawInput(lparam uintptr) {
	var size uint32
	headerSize := unsafe.Sizeof(rawInputHeader{})
	ret, _, _ := procGetRawInputData.Call(
		lparam,
		ridInput,
		0,
		uintptr(unsafe.Pointer(&size)),
		headerSize,
	)
	if int32(ret) < 0 || size == 0 {
		return
	}
	buf := make([]byte, size)
	ret, _, _ = procGetRawInputData.Call(
		lparam,
		ridInput,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		headerSize,
	)
	if int32(ret) <= 0 {
		return
	}
	header := (*rawInputHeader)(unsafe.Pointer(&buf[0]))
	if header.Type != rimTypeMouse {
		return
	}
	mouse := (*rawMouse)(unsafe.Pointer(&buf[headerSize]))
	if mouse.LastX == 0 && mouse.LastY == 0 {
		return
	}
	w.emit(platform.DeltaEvent{Dx: float64(mouse.LastX), Dy: float64(mouse.LastY)})
}

// emit forwards an event without blocking the pump thread.
func (w *Window) emit(evt platform.Event) {
	select {
	case w.events <- evt:
	default:
		w.logger.Warn("Event channel full, dropping %T", evt)
	}
}

// emitClose sends a single close event.
func (w *Window) emitClose() {
	if w.closed {
		return
	}
	w.closed = true
	w.emit(platform.CloseEvent{})
}
