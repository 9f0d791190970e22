package math

import (
	"github.com/xlab/linmath"
)

// Transform is a position, euler rotation (radians) and scale which produces
// a model matrix in the order translate * rotateY * rotateX * rotateZ * scale.
type Transform struct {
	Position linmath.Vec3
	Rotation linmath.Vec3
	Scale    linmath.Vec3
}

func TransformCreate() Transform {
	return Transform{
		Scale: linmath.Vec3{1, 1, 1},
	}
}

func TransformFromPosition(position linmath.Vec3) Transform {
	t := TransformCreate()
	t.Position = position
	return t
}

func TransformFromPositionScale(position linmath.Vec3, scale float32) Transform {
	t := TransformFromPosition(position)
	t.Scale = linmath.Vec3{scale, scale, scale}
	return t
}

// Matrix builds the model matrix of the transform.
func (t Transform) Matrix() linmath.Mat4x4 {
	var m linmath.Mat4x4
	m.Translate(t.Position[0], t.Position[1], t.Position[2])
	if t.Rotation[1] != 0 {
		m.RotateY(&m, t.Rotation[1])
	}
	if t.Rotation[0] != 0 {
		m.RotateX(&m, t.Rotation[0])
	}
	if t.Rotation[2] != 0 {
		m.RotateZ(&m, t.Rotation[2])
	}
	m.ScaleAniso(&m, t.Scale[0], t.Scale[1], t.Scale[2])
	return m
}
