//go:build windows

package platform

import (
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"github.com/jdginn/padengine/logging"
)

// Windows Core Audio GUIDs this package activates. go-ole only gives us
// CoCreateInstance/QueryInterface/Release and the raw vtable pointer; the
// GUIDs and vtable slot layout below are the published Core Audio API
// contract (mmdeviceapi.h / endpointvolume.h), the same contract
// itchyny/volume-go's Windows backend calls through.
var (
	clsidMMDeviceEnumerator = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidMMDeviceEnumerator   = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidAudioEndpointVolume  = ole.NewGUID("{5CDF2C82-841E-4546-9722-0CF74078229A}")
)

const (
	eRender  = 0
	eConsole = 0

	slotGetDefaultAudioEndpoint = 4 // IMMDeviceEnumerator
	slotActivate                = 3 // IMMDevice
	slotSetMasterVolumeScalar   = 7 // IAudioEndpointVolume
	slotGetMasterVolumeScalar   = 9
	slotSetMute                 = 14
	slotGetMute                 = 15
)

// VolumeController implements action.VolumeController over the default
// audio endpoint's IAudioEndpointVolume COM interface, using
// github.com/go-ole/go-ole (carried indirectly in viamrobotics-rdk's
// go.mod) for CoCreateInstance/QueryInterface/Release; the interface's own
// methods are plain vtable calls, since IAudioEndpointVolume predates
// IDispatch automation and go-ole's oleutil helpers only cover that later,
// late-bound calling convention.
type VolumeController struct {
	endpoint *ole.IUnknown
}

// NewVolumeController initializes COM on the calling goroutine (COM
// apartments are thread-affine; callers must pin every VolumeController
// call to the same OS thread, e.g. via runtime.LockOSThread) and binds to
// the default render endpoint's volume interface.
func NewVolumeController() (*VolumeController, error) {
	if err := ole.CoInitialize(0); err != nil {
		return nil, fmt.Errorf("platform: CoInitialize: %w", err)
	}

	enumerator, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidMMDeviceEnumerator)
	if err != nil {
		return nil, fmt.Errorf("platform: create MMDeviceEnumerator: %w", err)
	}
	defer enumerator.Release()

	var device *ole.IUnknown
	if _, err := vtblCall(enumerator, slotGetDefaultAudioEndpoint, &device, eRender, eConsole); err != nil {
		return nil, fmt.Errorf("platform: GetDefaultAudioEndpoint: %w", err)
	}
	defer device.Release()

	var endpoint *ole.IUnknown
	if _, err := vtblCall(device, slotActivate, &endpoint, iidAudioEndpointVolume, 0, uintptr(0)); err != nil {
		return nil, fmt.Errorf("platform: Activate(IAudioEndpointVolume): %w", err)
	}

	return &VolumeController{endpoint: endpoint}, nil
}

func (v *VolumeController) Set(amount int) error {
	level := float32(clampPercent(amount)) / 100.0
	_, err := vtblCallFloat(v.endpoint, slotSetMasterVolumeScalar, level)
	return err
}

func (v *VolumeController) Adjust(delta int) error {
	current, err := v.currentScalar()
	if err != nil {
		return err
	}
	return v.Set(clampPercent(int(current*100) + delta))
}

func (v *VolumeController) currentScalar() (float32, error) {
	var out float32
	if _, err := vtblCall(v.endpoint, slotGetMasterVolumeScalar, &out); err != nil {
		return 0, fmt.Errorf("platform: GetMasterVolumeLevelScalar: %w", err)
	}
	return out, nil
}

func (v *VolumeController) Mute() error { return v.setMute(true) }

func (v *VolumeController) Unmute() error { return v.setMute(false) }

func (v *VolumeController) ToggleMute() error {
	var muted int32
	if _, err := vtblCall(v.endpoint, slotGetMute, &muted); err != nil {
		logging.Get(logging.PLATFORM).Warn("could not read mute state, toggling blind", "err", err)
	}
	return v.setMute(muted == 0)
}

func (v *VolumeController) setMute(mute bool) error {
	var flag uintptr
	if mute {
		flag = 1
	}
	_, err := vtblCall(v.endpoint, slotSetMute, flag, uintptr(0))
	return err
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// vtblCall invokes the method at vtable slot index on obj, in the calling
// convention every raw (non-IDispatch) COM interface uses: the interface
// pointer itself as the implicit first argument, followed by the method's
// declared parameters left to right. Out-parameters (device/endpoint
// pointers, read-back scalars) are passed as a pointer and written through
// by the callee, matching the C calling convention these interfaces were
// designed for.
func vtblCall(obj *ole.IUnknown, index int, args ...interface{}) (uintptr, error) {
	vtbl := (*[32]uintptr)(unsafe.Pointer(obj.RawVTable))
	fn := vtbl[index]

	callArgs := make([]uintptr, 0, len(args)+1)
	callArgs = append(callArgs, uintptr(unsafe.Pointer(obj)))
	for _, a := range args {
		switch v := a.(type) {
		case *ole.IUnknown:
			callArgs = append(callArgs, uintptr(unsafe.Pointer(&v)))
		case **ole.IUnknown:
			callArgs = append(callArgs, uintptr(unsafe.Pointer(v)))
		case *ole.GUID:
			callArgs = append(callArgs, uintptr(unsafe.Pointer(v)))
		case *int32:
			callArgs = append(callArgs, uintptr(unsafe.Pointer(v)))
		case *float32:
			callArgs = append(callArgs, uintptr(unsafe.Pointer(v)))
		case int:
			callArgs = append(callArgs, uintptr(v))
		case uintptr:
			callArgs = append(callArgs, v)
		default:
			return 0, fmt.Errorf("platform: vtblCall: unsupported arg type %T", a)
		}
	}

	r, _, _ := syscall.SyscallN(fn, callArgs...)
	if int32(r) < 0 {
		return r, fmt.Errorf("HRESULT 0x%x", uint32(r))
	}
	return r, nil
}

func vtblCallFloat(obj *ole.IUnknown, index int, level float32) (uintptr, error) {
	vtbl := (*[32]uintptr)(unsafe.Pointer(obj.RawVTable))
	fn := vtbl[index]
	r, _, _ := syscall.SyscallN(fn, uintptr(unsafe.Pointer(obj)), uintptr(*(*uint32)(unsafe.Pointer(&level))), 0)
	if int32(r) < 0 {
		return r, fmt.Errorf("HRESULT 0x%x", uint32(r))
	}
	return r, nil
}
