package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
)

// MockShape implements Shape for testing
type MockShape struct {
	hitFn func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
	calls int
}

func (m *MockShape) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	m.calls++
	return m.hitFn(ray, tMin, tMax)
}

func TestHittableList_Empty(t *testing.T) {
	list := NewHittableList()
	hit, isHit := list.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, math.Inf(1))
	if isHit || hit != nil {
		t.Errorf("Empty list should never report a hit, got %+v", hit)
	}
	if list.Len() != 0 {
		t.Errorf("Expected empty list, got %d shapes", list.Len())
	}
}

func TestHittableList_NearestHitIndependentOfOrder(t *testing.T) {
	near := NewSphere(core.NewVec3(0, 0, -2), 0.5, material.NewLambertian(core.NewVec3(1, 0, 0)))
	far := NewSphere(core.NewVec3(0, 0, -5), 0.5, material.NewLambertian(core.NewVec3(0, 1, 0)))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	orders := map[string][]Shape{
		"near first": {near, far},
		"far first":  {far, near},
	}

	for name, shapes := range orders {
		t.Run(name, func(t *testing.T) {
			list := NewHittableList(shapes...)
			hit, isHit := list.Hit(ray, 0.001, math.Inf(1))
			if !isHit {
				t.Fatal("Expected hit")
			}
			if math.Abs(hit.T-1.5) > 1e-9 {
				t.Errorf("Expected nearest hit at t=1.5, got %f", hit.T)
			}
			if hit.Material != near.Material {
				t.Errorf("Expected the near sphere's material")
			}
		})
	}
}

func TestHittableList_NarrowsUpperBound(t *testing.T) {
	var seenTMax []float64
	first := &MockShape{hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
		seenTMax = append(seenTMax, tMax)
		return &material.HitRecord{T: 4}, true
	}}
	second := &MockShape{hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
		seenTMax = append(seenTMax, tMax)
		return nil, false
	}}
	third := &MockShape{hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
		seenTMax = append(seenTMax, tMax)
		return &material.HitRecord{T: 2}, true
	}}

	list := NewHittableList(first, second)
	list.Add(third)

	hit, isHit := list.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)), 0.001, 100)
	if !isHit || hit.T != 2 {
		t.Fatalf("Expected last reported hit at t=2, got %+v", hit)
	}

	expected := []float64{100, 4, 4}
	for i := range expected {
		if seenTMax[i] != expected[i] {
			t.Errorf("Shape %d saw tMax=%f, expected %f", i, seenTMax[i], expected[i])
		}
	}

	// Every member is scanned
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("Expected every shape to be tested once, got %d %d %d", first.calls, second.calls, third.calls)
	}
}

func TestHittableList_IsAShape(t *testing.T) {
	inner := NewHittableList(NewSphere(core.NewVec3(0, 0, -3), 1, nil))
	outer := NewHittableList(inner, NewSphere(core.NewVec3(0, 0, -10), 1, nil))

	hit, isHit := outer.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, math.Inf(1))
	if !isHit || math.Abs(hit.T-2) > 1e-9 {
		t.Errorf("Expected nested list hit at t=2, got %+v", hit)
	}
}
