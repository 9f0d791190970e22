package metadata

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObjectTransformDelivery selects how a draw tells the vertex shader which
// object it is rendering. It is fixed when the pipeline of a material is built.
type ObjectTransformDelivery uint8

const (
	// ObjectTransformIndexedStorage passes the object index as the draw's first
	// instance; the shader fetches the transform from the object storage buffer.
	ObjectTransformIndexedStorage ObjectTransformDelivery = iota
	// ObjectTransformInlinePushed sends the object index and transform in the
	// push constant block of every draw.
	ObjectTransformInlinePushed
)

func (d ObjectTransformDelivery) String() string {
	switch d {
	case ObjectTransformIndexedStorage:
		return "storage"
	case ObjectTransformInlinePushed:
		return "push"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

func (d ObjectTransformDelivery) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *ObjectTransformDelivery) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "storage", "indexed", "indexed_storage":
		*d = ObjectTransformIndexedStorage
	case "push", "pushed", "inline", "inline_pushed":
		*d = ObjectTransformInlinePushed
	default:
		return fmt.Errorf("unknown object transform delivery `%s`", string(text))
	}
	return nil
}

/**
 * @brief A material is a built graphics pipeline together with its layout.
 * Pointers handed out by the catalog stay valid for the catalog lifetime.
 */
type Material struct {
	ID   uuid.UUID
	Name string
	/** @brief The device pipeline handle. */
	Pipeline GPUHandle
	/** @brief The pipeline layout, needed for descriptor and push constant binds. */
	Layout GPUHandle
	/** @brief How draws using this material identify their object. */
	Delivery ObjectTransformDelivery
}
