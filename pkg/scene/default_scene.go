package scene

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// NewDefaultScene creates three spheres on a large ground sphere: diffuse in the
// middle, a hollow glass bubble on the left and polished gold on the right
func NewDefaultScene() *Scene {
	cameraConfig := renderer.CameraConfig{
		LookFrom:    core.NewVec3(-2, 2, 1),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        20.0,
		AspectRatio: 16.0 / 9.0,
	}

	// Create materials
	materialGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialGlass := material.NewDielectric(1.5)
	materialGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)

	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, materialCenter),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, materialGround),
		// Negative radius flips the normals inward, leaving a thin glass shell
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, materialGlass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.4, materialGlass),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, materialGold),
	)

	return newScene("default", world, cameraConfig, 400, renderer.DefaultSamplingConfig())
}

// NewSingleSphereScene creates one grey diffuse unit sphere at the origin
func NewSingleSphereScene() *Scene {
	cameraConfig := renderer.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 3),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		AspectRatio: 2.0,
	}

	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, 0), 1, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))),
	)

	return newScene("single-sphere", world, cameraConfig, 200, renderer.DefaultSamplingConfig())
}

// NewEmptyScene creates a scene with nothing in it, every ray sees the sky
func NewEmptyScene() *Scene {
	return newScene("empty", geometry.NewHittableList(), renderer.DefaultCameraConfig(), 400, renderer.DefaultSamplingConfig())
}
