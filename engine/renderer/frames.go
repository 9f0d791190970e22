package renderer

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

type FrameState uint8

const (
	// Slot has never been used
	FrameStateIdle FrameState = iota
	// CPU is blocked on the slot's fence
	FrameStateWaitingOnFence
	// Fence retired; commands are being recorded
	FrameStateRecording
	// Command buffer handed to the graphics queue
	FrameStateSubmitted
	// Image handed back to the presentation engine
	FrameStatePresented
)

func (s FrameState) String() string {
	switch s {
	case FrameStateIdle:
		return "idle"
	case FrameStateWaitingOnFence:
		return "waiting_on_fence"
	case FrameStateRecording:
		return "recording"
	case FrameStateSubmitted:
		return "submitted"
	case FrameStatePresented:
		return "presented"
	default:
		return "unknown"
	}
}

// FrameSlot is one entry of the frame ring.
type FrameSlot struct {
	Index      int
	State      FrameState
	Resources  *metadata.FrameResources
	ImageIndex uint32

	imageAcquired bool
}

// FrameRing hands out frame slots round robin and enforces the per slot
// order wait -> acquire -> submit -> present.
//
// A slot is reused only after its fence shows the GPU finished the previous
// submission made with it, so the CPU never runs more than len(slots) frames
// ahead.
type FrameRing struct {
	sync         FrameSync
	slots        []*FrameSlot
	fenceTimeout time.Duration
}

func NewFrameRing(sync FrameSync, resources []*metadata.FrameResources, fenceTimeout time.Duration) (*FrameRing, error) {
	if len(resources) == 0 {
		return nil, fmt.Errorf("frame ring needs at least one slot")
	}
	slots := make([]*FrameSlot, len(resources))
	for i, res := range resources {
		if res == nil || res.CommandBuffer == nil {
			return nil, fmt.Errorf("frame slot %d has no resources", i)
		}
		slots[i] = &FrameSlot{
			Index:     i,
			State:     FrameStateIdle,
			Resources: res,
		}
	}
	return &FrameRing{
		sync:         sync,
		slots:        slots,
		fenceTimeout: fenceTimeout,
	}, nil
}

func (fr *FrameRing) Len() int {
	return len(fr.slots)
}

// AcquireSlot returns the slot used by frameNumber
func (fr *FrameRing) AcquireSlot(frameNumber uint64) *FrameSlot {
	return fr.slots[frameNumber%uint64(len(fr.slots))]
}

// BeginFrame waits for the GPU to retire the slot's previous submission, then
// resets its fence and command buffer.
func (fr *FrameRing) BeginFrame(slot *FrameSlot) error {
	if slot.State != FrameStateIdle && slot.State != FrameStatePresented {
		return fmt.Errorf("begin frame on slot %d in state %s: %w", slot.Index, slot.State, core.ErrInvalidFrameState)
	}
	slot.State = FrameStateWaitingOnFence

	if err := fr.sync.WaitForFence(slot.Resources.RenderFence, fr.fenceTimeout); err != nil {
		return fmt.Errorf("slot %d fence wait: %w", slot.Index, err)
	}
	if err := fr.sync.ResetFence(slot.Resources.RenderFence); err != nil {
		return fmt.Errorf("slot %d fence reset: %w", slot.Index, err)
	}
	if err := slot.Resources.CommandBuffer.Reset(); err != nil {
		return fmt.Errorf("slot %d command buffer reset: %w", slot.Index, err)
	}

	slot.imageAcquired = false
	slot.State = FrameStateRecording
	return nil
}

// AcquireImage requests the next swapchain image, bounded by the same timeout
// as the fence wait. The slot's present semaphore signals once the image can
// be rendered to.
func (fr *FrameRing) AcquireImage(slot *FrameSlot) (uint32, error) {
	if slot.State != FrameStateRecording || slot.imageAcquired {
		return 0, fmt.Errorf("acquire image on slot %d in state %s: %w", slot.Index, slot.State, core.ErrInvalidFrameState)
	}
	imageIndex, err := fr.sync.AcquireNextImage(slot.Resources.PresentSemaphore, fr.fenceTimeout)
	if err != nil {
		return 0, fmt.Errorf("slot %d acquire image: %w", slot.Index, err)
	}
	slot.ImageIndex = imageIndex
	slot.imageAcquired = true
	return imageIndex, nil
}

// Submit queues the slot's recorded command buffer.
func (fr *FrameRing) Submit(slot *FrameSlot) error {
	if slot.State != FrameStateRecording || !slot.imageAcquired {
		return fmt.Errorf("submit on slot %d in state %s: %w", slot.Index, slot.State, core.ErrInvalidFrameState)
	}
	res := slot.Resources
	if err := fr.sync.Submit(res.CommandBuffer, res.PresentSemaphore, res.RenderSemaphore, res.RenderFence); err != nil {
		return fmt.Errorf("slot %d submit: %w", slot.Index, err)
	}
	slot.State = FrameStateSubmitted
	return nil
}

// Present hands the acquired image back once rendering completes.
func (fr *FrameRing) Present(slot *FrameSlot) error {
	if slot.State != FrameStateSubmitted {
		return fmt.Errorf("present on slot %d in state %s: %w", slot.Index, slot.State, core.ErrInvalidFrameState)
	}
	if err := fr.sync.Present(slot.ImageIndex, slot.Resources.RenderSemaphore); err != nil {
		return fmt.Errorf("slot %d present: %w", slot.Index, err)
	}
	slot.State = FrameStatePresented
	return nil
}
