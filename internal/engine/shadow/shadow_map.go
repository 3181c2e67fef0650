// Package shadow provides the light-space matrices and depth maps used for
// spot light shadows.
package shadow

import (
	"fmt"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

// DefaultResolution is the default shadow map resolution.
const DefaultResolution = 1280

// Maps holds one square depth map per light slot. Each map is rendered as a
// depth target in the shadow pass and sampled in the main pass.
type Maps struct {
	Depth      [constants.MaxLights]*gpu.Texture
	Resolution int

	dev gpu.Device
}

// NewMaps creates the depth maps. A non-positive resolution selects
// DefaultResolution.
func NewMaps(dev gpu.Device, resolution int) (*Maps, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	m := &Maps{Resolution: resolution, dev: dev}

	desc := gpu.TextureDesc{
		Width:          resolution,
		Height:         resolution,
		Format:         gpu.FormatDepth32F,
		DepthStencil:   true,
		ShaderResource: true,
	}
	for i := range m.Depth {
		tex, err := dev.CreateTexture(desc, nil)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("shadow map %d: %w", i, err)
		}
		m.Depth[i] = tex
	}
	return m, nil
}

// Viewport covers a whole shadow map.
func (m *Maps) Viewport() gpu.Viewport {
	return gpu.FullViewport(m.Resolution, m.Resolution)
}

// Begin binds light slot i's depth map as the only target and clears it.
func (m *Maps) Begin(ctx gpu.Context, i int) {
	ctx.SetViewport(m.Viewport())
	ctx.SetRenderTargets(nil, m.Depth[i])
	ctx.ClearDepthStencil(m.Depth[i], gpu.ClearDepth, 1, 0)
}

// Close releases the depth maps.
func (m *Maps) Close() {
	res := make([]gpu.Resource, 0, len(m.Depth))
	for i, tex := range m.Depth {
		if tex != nil {
			res = append(res, tex)
			m.Depth[i] = nil
		}
	}
	m.dev.Release(res...)
}
