package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

const maxColorTargets = 4

// fboKey identifies a combination of attachments.
type fboKey struct {
	colors [maxColorTargets]gpu.Handle
	count  int
	depth  gpu.Handle
}

func makeKey(colors []*gpu.Texture, depth *gpu.Texture) fboKey {
	var k fboKey
	for i, c := range colors {
		if i == maxColorTargets {
			break
		}
		k.colors[i] = c.ID
		k.count++
	}
	if depth != nil {
		k.depth = depth.ID
	}
	return k
}

// defaultSurface reports whether the targets are the window surface.
func defaultSurface(colors []*gpu.Texture) bool {
	return len(colors) == 1 && colors[0] == gpu.BackBuffer
}

// fboCache builds framebuffer objects on demand, one per attachment set.
type fboCache struct {
	fbos map[fboKey]uint32
	log  *zap.Logger
}

func newFBOCache(log *zap.Logger) *fboCache {
	return &fboCache{fbos: make(map[fboKey]uint32), log: log}
}

// get returns the framebuffer for the attachments, creating it if needed.
func (c *fboCache) get(colors []*gpu.Texture, depth *gpu.Texture) (uint32, error) {
	if defaultSurface(colors) {
		return 0, nil
	}
	key := makeKey(colors, depth)
	if fbo, ok := c.fbos[key]; ok {
		return fbo, nil
	}

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	drawBuffers := make([]uint32, 0, key.count)
	for i := 0; i < key.count; i++ {
		att := uint32(gl.COLOR_ATTACHMENT0 + i)
		gl.FramebufferTexture(gl.FRAMEBUFFER, att, uint32(colors[i].ID), 0)
		drawBuffers = append(drawBuffers, att)
	}
	if depth != nil {
		gl.FramebufferTexture(gl.FRAMEBUFFER, depthAttachment(depth.Desc.Format), uint32(depth.ID), 0)
	}

	// Depth-only targets have no color buffer.
	if len(drawBuffers) == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	} else {
		gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	c.fbos[key] = fbo
	c.log.Debug("framebuffer created", zap.Uint32("fbo", fbo), zap.Int("colors", key.count))
	return fbo, nil
}

// evict deletes every framebuffer that references a texture.
func (c *fboCache) evict(tex gpu.Handle) {
	for key, fbo := range c.fbos {
		if !key.references(tex) {
			continue
		}
		gl.DeleteFramebuffers(1, &fbo)
		delete(c.fbos, key)
	}
}

func (k fboKey) references(tex gpu.Handle) bool {
	if k.depth == tex {
		return true
	}
	for i := 0; i < k.count; i++ {
		if k.colors[i] == tex {
			return true
		}
	}
	return false
}

func (c *fboCache) destroy() {
	for key, fbo := range c.fbos {
		gl.DeleteFramebuffers(1, &fbo)
		delete(c.fbos, key)
	}
}
