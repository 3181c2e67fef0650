package constants

import (
	"fmt"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Manager owns the per-view constant buffers: the camera view, its mirror
// reflection and one shadow view per light slot.
type Manager struct {
	ctx gpu.Context
	dev gpu.Device

	// Global is the CPU copy of the camera block. Lights and IBL settings are
	// edited here and reach the reflected block on the next UpdateGlobal.
	Global    GlobalConstants
	reflected GlobalConstants
	shadows   [MaxLights]GlobalConstants

	globalBuf  *gpu.Buffer
	reflectBuf *gpu.Buffer
	shadowBufs [MaxLights]*gpu.Buffer
}

// NewManager creates the constant buffers with default contents.
func NewManager(dev gpu.Device, ctx gpu.Context) (*Manager, error) {
	m := &Manager{
		ctx:    ctx,
		dev:    dev,
		Global: DefaultGlobalConstants(),
	}
	m.reflected = m.Global
	for i := range m.shadows {
		m.shadows[i] = DefaultGlobalConstants()
	}

	var err error
	if m.globalBuf, err = NewBuffer(dev, &m.Global); err != nil {
		return nil, fmt.Errorf("global constants: %w", err)
	}
	if m.reflectBuf, err = NewBuffer(dev, &m.reflected); err != nil {
		m.Close()
		return nil, fmt.Errorf("reflected constants: %w", err)
	}
	for i := range m.shadowBufs {
		if m.shadowBufs[i], err = NewBuffer(dev, &m.shadows[i]); err != nil {
			m.Close()
			return nil, fmt.Errorf("shadow constants %d: %w", i, err)
		}
	}
	return m, nil
}

// UpdateGlobal derives and uploads the camera block and its reflection about
// the mirror plane. The reflected block starts as a full copy so lights and
// IBL settings are shared, then only the view-dependent fields change.
func (m *Manager) UpdateGlobal(eye math.Vec3, view, proj, reflection math.Mat4) {
	g := &m.Global
	g.EyeWorld = eye
	g.View = view
	g.Proj = proj
	g.InvProj = proj.Inverse()
	g.ViewProj = proj.Mul(view)
	g.InvViewProj = g.ViewProj.Inverse()

	m.reflected = *g
	m.reflected.View = view.Mul(reflection)
	m.reflected.ViewProj = proj.Mul(view).Mul(reflection)
	m.reflected.InvViewProj = m.reflected.ViewProj.Inverse()

	Upload(m.ctx, m.globalBuf, &m.Global)
	Upload(m.ctx, m.reflectBuf, &m.reflected)
}

// UpdateShadow derives and uploads the shadow view block of light slot i.
func (m *Manager) UpdateShadow(i int, eye math.Vec3, view, proj math.Mat4) {
	s := &m.shadows[i]
	s.EyeWorld = eye
	s.View = view
	s.Proj = proj
	s.InvProj = proj.Inverse()
	s.ViewProj = proj.Mul(view)
	s.InvViewProj = s.ViewProj.Inverse()
	Upload(m.ctx, m.shadowBufs[i], s)
}

// Shadow returns the CPU copy of light slot i's shadow block.
func (m *Manager) Shadow(i int) GlobalConstants {
	return m.shadows[i]
}

// GlobalBuffer returns the camera block buffer.
func (m *Manager) GlobalBuffer() *gpu.Buffer { return m.globalBuf }

// ReflectedBuffer returns the reflected block buffer.
func (m *Manager) ReflectedBuffer() *gpu.Buffer { return m.reflectBuf }

// ShadowBuffer returns light slot i's shadow block buffer.
func (m *Manager) ShadowBuffer(i int) *gpu.Buffer { return m.shadowBufs[i] }

// Close releases the buffers.
func (m *Manager) Close() {
	res := []gpu.Resource{m.globalBuf, m.reflectBuf}
	for _, b := range m.shadowBufs {
		res = append(res, b)
	}
	m.dev.Release(res...)
}
