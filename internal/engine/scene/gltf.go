package scene

import (
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/logger"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// LoadGLTF reads every triangle primitive of a glTF file, converts it to the
// left-handed scene space and normalizes the result to a unit box centred
// on the origin. reverseNormals flips the normals of the whole file.
func LoadGLTF(path string, reverseNormals bool) ([]MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %q: %w", path, err)
	}

	l := &gltfLoader{
		doc:            doc,
		dir:            filepath.Dir(path),
		reverseNormals: reverseNormals,
	}
	for _, root := range l.roots() {
		if err := l.node(root, math.Identity()); err != nil {
			return nil, fmt.Errorf("load gltf %q: %w", path, err)
		}
	}
	if len(l.meshes) == 0 {
		return nil, fmt.Errorf("load gltf %q: no triangle meshes", path)
	}

	for i := range l.meshes {
		ComputeTangents(&l.meshes[i])
	}
	NormalizeToUnitBox(l.meshes)

	logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(l.meshes)))
	return l.meshes, nil
}

type gltfLoader struct {
	doc            *gltf.Document
	dir            string
	reverseNormals bool
	meshes         []MeshData
}

// roots returns the nodes of the default scene, or every parentless node.
func (l *gltfLoader) roots() []int {
	if s := l.doc.Scene; s != nil && *s < len(l.doc.Scenes) {
		return l.doc.Scenes[*s].Nodes
	}
	hasParent := make([]bool, len(l.doc.Nodes))
	for _, n := range l.doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range l.doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (l *gltfLoader) node(idx int, parent math.Mat4) error {
	if idx >= len(l.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	n := l.doc.Nodes[idx]
	world := parent.Mul(localTransform(n))

	if n.Mesh != nil && *n.Mesh < len(l.doc.Meshes) {
		for pi, prim := range l.doc.Meshes[*n.Mesh].Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			m, err := l.primitive(prim, world)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *n.Mesh, pi, err)
			}
			l.meshes = append(l.meshes, m)
		}
	}
	for _, c := range n.Children {
		if err := l.node(c, world); err != nil {
			return err
		}
	}
	return nil
}

func localTransform(n *gltf.Node) math.Mat4 {
	var m math.Mat4
	for i, v := range n.MatrixOrDefault() {
		m[i] = float32(v)
	}
	if m != math.Identity() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
	return math.Translate(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul(q.ToMat4()).
		Mul(math.Scale(float32(s[0]), float32(s[1]), float32(s[2])))
}

// primitive reads one primitive. glTF is right-handed: z is negated and the
// triangle winding reversed.
func (l *gltfLoader) primitive(prim *gltf.Primitive, world math.Mat4) (MeshData, error) {
	var m MeshData

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return m, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(l.doc, l.doc.Accessors[posIdx], nil)
	if err != nil {
		return m, fmt.Errorf("positions: %w", err)
	}
	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(l.doc, l.doc.Accessors[idx], nil); err != nil {
			return m, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(l.doc, l.doc.Accessors[idx], nil); err != nil {
			return m, fmt.Errorf("texcoords: %w", err)
		}
	}

	normalMat := world.NormalMatrix()
	m.Vertices = make([]Vertex, len(positions))
	for i, p := range positions {
		pos := world.TransformPoint(math.Vec3{X: p[0], Y: p[1], Z: p[2]})
		v := Vertex{Position: math.Vec3{X: pos.X, Y: pos.Y, Z: -pos.Z}}
		if i < len(normals) {
			n := normalMat.TransformDirection(math.Vec3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]})
			n.Z = -n.Z
			if l.reverseNormals {
				n = n.Negate()
			}
			v.Normal = n.Normalize()
		}
		if i < len(uvs) {
			v.TexCoord = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		m.Vertices[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil); err != nil {
			return m, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}
	m.Indices = indices

	if prim.Material != nil && *prim.Material < len(l.doc.Materials) {
		l.material(&m, l.doc.Materials[*prim.Material])
	}
	return m, nil
}

// material records the texture files of a glTF material. The glTF
// metallic-roughness texture already keeps roughness in G and metallic in B.
func (l *gltfLoader) material(m *MeshData, mat *gltf.Material) {
	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			m.AlbedoTexture = l.texturePath(pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			p := l.texturePath(pbr.MetallicRoughnessTexture.Index)
			m.MetallicTexture, m.RoughnessTexture = p, p
		}
	}
	if t := mat.NormalTexture; t != nil && t.Index != nil {
		m.NormalTexture = l.texturePath(*t.Index)
	}
	if t := mat.OcclusionTexture; t != nil && t.Index != nil {
		m.AOTexture = l.texturePath(*t.Index)
	}
	if t := mat.EmissiveTexture; t != nil {
		m.EmissiveTexture = l.texturePath(t.Index)
	}
}

// texturePath resolves a texture index to a file next to the model.
// Embedded images are not supported and resolve to "".
func (l *gltfLoader) texturePath(idx int) string {
	if idx < 0 || idx >= len(l.doc.Textures) {
		return ""
	}
	src := l.doc.Textures[idx].Source
	if src == nil || *src >= len(l.doc.Images) {
		return ""
	}
	img := l.doc.Images[*src]
	if img.URI == "" || img.IsEmbeddedResource() {
		logger.Warn("embedded gltf image skipped", zap.Int("image", *src))
		return ""
	}
	return filepath.Join(l.dir, filepath.FromSlash(img.URI))
}
