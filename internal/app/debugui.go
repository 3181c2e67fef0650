package app

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
)

// Mirror panel ranges.
const (
	maxIBLStrength  = 5
	maxLodBias      = 10
	maxFogStrength  = 10
	maxExposure     = 10
	maxGamma        = 5
	minGamma        = 0.1
	maxHaloRadius   = 2
	maxLightRadius  = 0.5
	maxHeightScale  = 0.1
	panelLightIndex = 1
)

// DescribeDebugUI implements Scene.
func (s *MirrorScene) DescribeDebugUI(ui DebugUI) {
	if ui.Button("Open Model...") {
		s.RequestModel()
	}
	ui.SameLine()
	if ui.Button("Save Screenshot") {
		s.snapshotRequested = true
	}
	if s.SaveSettings != nil {
		ui.SameLine()
		if ui.Button("Save Settings") {
			if err := s.SaveSettings(s.RenderConfig()); err != nil {
				s.log.Error("saving settings failed", zap.Error(err))
			}
		}
	}

	if ui.TreeNode("General", false) {
		s.generalControls(ui)
		ui.TreePop()
	}
	if ui.TreeNode("Skybox", true) {
		s.skyboxControls(ui)
		ui.TreePop()
	}
	if ui.TreeNode("Post Effects", true) {
		s.postEffectsControls(ui)
		ui.TreePop()
	}
	if ui.TreeNode("Post Processing", false) {
		s.postProcessingControls(ui)
		ui.TreePop()
	}
	if ui.TreeNode("Mirror", true) {
		s.mirrorControls(ui)
		ui.TreePop()
	}
	if ui.TreeNode("Light", true) {
		s.lightControls(ui)
		ui.TreePop()
	}
	if ui.TreeNode("Material", true) {
		s.materialControls(ui)
		ui.TreePop()
	}
}

func (s *MirrorScene) generalControls(ui DebugUI) {
	ui.Checkbox("Use FPV", &s.camera.FirstPerson)
	ui.Checkbox("Wireframe", &s.renderer.Wireframe)

	msaa := s.msaa()
	if ui.Checkbox("MSAA ON", &msaa) {
		s.requestMSAA(msaa)
	}
	ui.Checkbox("Perspective Projection", &s.camera.Perspective)
}

func (s *MirrorScene) skyboxControls(ui DebugUI) {
	g := &s.consts.Global
	ui.SliderFloat("Strength", &g.IBLStrength, 0, maxIBLStrength)
	ui.RadioButton("Env", &g.TextureToDraw, 0)
	ui.SameLine()
	ui.RadioButton("Specular", &g.TextureToDraw, 1)
	ui.SameLine()
	ui.RadioButton("Irradiance", &g.TextureToDraw, 2)
	ui.SliderFloat("EnvLodBias", &g.EnvLodBias, 0, maxLodBias)
}

func (s *MirrorScene) postEffectsControls(ui DebugUI) {
	pe := &s.renderer.PostEffects
	mode := (*int32)(&pe.Mode)
	ui.RadioButton("Render", mode, int32(constants.PostEffectsRender))
	ui.SameLine()
	ui.RadioButton("Depth", mode, int32(constants.PostEffectsDepth))
	ui.SliderFloat("DepthScale", &pe.DepthScale, 0, 1)
	ui.SliderFloat("Fog", &pe.FogStrength, 0, maxFogStrength)
}

func (s *MirrorScene) postProcessingControls(ui DebugUI) {
	settings := s.renderer.PostProcessing()
	changed := ui.SliderFloat("Bloom Strength", &settings.BloomStrength, 0, 1)
	changed = ui.SliderFloat("Exposure", &settings.Exposure, 0, maxExposure) || changed
	changed = ui.SliderFloat("Gamma", &settings.Gamma, minGamma, maxGamma) || changed
	if changed {
		s.renderer.SetPostProcessing(settings)
	}
}

func (s *MirrorScene) mirrorControls(ui DebugUI) {
	mat := &s.scene.Mirror.MaterialConsts
	ui.SliderFloat("Alpha", &s.renderer.MirrorAlpha, 0, 1)
	ui.SliderFloat("Metallic", &mat.MetallicFactor, 0, 1)
	ui.SliderFloat("Roughness", &mat.RoughnessFactor, 0, 1)
}

func (s *MirrorScene) lightControls(ui DebugUI) {
	l := &s.consts.Global.Lights[panelLightIndex]
	ui.SliderFloat("Halo Radius", &l.HaloRadius, 0, maxHaloRadius)
	ui.SliderFloat("Halo Strength", &l.HaloStrength, 0, 1)
	ui.SliderFloat("Radius", &l.Radius, 0, maxLightRadius)
}

func (s *MirrorScene) materialControls(ui DebugUI) {
	obj := s.scene.MainObj
	mat := &obj.MaterialConsts
	mesh := &obj.MeshConsts

	ui.SliderFloat("LodBias", &s.consts.Global.LodBias, 0, maxLodBias)
	ui.SliderFloat("Metallic", &mat.MetallicFactor, 0, 1)
	ui.SliderFloat("Roughness", &mat.RoughnessFactor, 0, 1)
	ui.CheckboxFlag("AlbedoTexture", &mat.UseAlbedoMap)
	ui.CheckboxFlag("EmissiveTexture", &mat.UseEmissiveMap)
	ui.CheckboxFlag("Use NormalMapping", &mat.UseNormalMap)
	ui.CheckboxFlag("Use AO", &mat.UseAOMap)
	ui.CheckboxFlag("Use HeightMapping", &mesh.UseHeightMap)
	ui.SliderFloat("HeightScale", &mesh.HeightScale, 0, maxHeightScale)
	ui.CheckboxFlag("Use MetallicMap", &mat.UseMetallicMap)
	ui.CheckboxFlag("Use RoughnessMap", &mat.UseRoughnessMap)
	ui.Checkbox("Draw Normals", &obj.DrawNormals)
}
