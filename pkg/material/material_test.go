package material

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// fixedSampler returns the same values on every draw
type fixedSampler struct {
	one   float64
	two   core.Vec2
	three core.Vec3
}

func (f fixedSampler) Get1D() float64   { return f.one }
func (f fixedSampler) Get2D() core.Vec2 { return f.two }
func (f fixedSampler) Get3D() core.Vec3 { return f.three }

// countingSampler records how many draws were made
type countingSampler struct {
	core.Sampler
	draws int
}

func (c *countingSampler) Get1D() float64 {
	c.draws++
	return c.Sampler.Get1D()
}

func (c *countingSampler) Get2D() core.Vec2 {
	c.draws++
	return c.Sampler.Get2D()
}

func (c *countingSampler) Get3D() core.Vec3 {
	c.draws++
	return c.Sampler.Get3D()
}

func upHit(m Material) HitRecord {
	return HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		T:         1.0,
		FrontFace: true,
		Material:  m,
	}
}
