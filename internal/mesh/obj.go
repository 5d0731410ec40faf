package mesh

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	vkngmath "github.com/vkngwrapper/math"
)

var white = vkngmath.Vec3[float32]{X: 1, Y: 1, Z: 1}

// LoadOBJ reads the OBJ file at path together with mtlPath. An empty mtlPath
// loads the geometry with every vertex white.
func LoadOBJ(path, mtlPath string) (Mesh, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "open mesh")
	}
	defer meshFile.Close()

	var matReader io.Reader = strings.NewReader("")
	if mtlPath != "" {
		matFile, err := os.Open(mtlPath)
		if err != nil {
			return Mesh{}, errors.Wrap(err, "open material")
		}
		defer matFile.Close()
		matReader = matFile
	}

	return DecodeOBJ(meshFile, matReader)
}

// DecodeOBJ builds an indexed mesh from OBJ and MTL streams. Faces are
// triangulated as fans and vertices are shared per OBJ position index and
// material.
func DecodeOBJ(meshReader, matReader io.Reader) (Mesh, error) {
	decoder, err := obj.DecodeReader(meshReader, matReader)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "decode obj")
	}

	var m Mesh
	uniqueVertices := make(map[vertexKey]uint32)

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			color := faceColor(decoder, face.Material)
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					if err := m.addVertex(decoder, uniqueVertices, face.Vertices[corner], face.Material, color); err != nil {
						return Mesh{}, err
					}
				}
			}
		}
	}

	if len(m.Indices) == 0 {
		return Mesh{}, errors.New("obj contains no faces")
	}

	return m, nil
}

type vertexKey struct {
	position int
	material string
}

func (m *Mesh) addVertex(decoder *obj.Decoder, unique map[vertexKey]uint32, vertInd int, material string, color vkngmath.Vec3[float32]) error {
	key := vertexKey{position: vertInd, material: material}
	index, exists := unique[key]

	if !exists {
		if vertInd < 0 || vertInd*3+2 >= len(decoder.Vertices) {
			return errors.Newf("obj face references missing vertex %d", vertInd)
		}

		index = uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, Vertex{
			Position: vkngmath.Vec2[float32]{
				X: decoder.Vertices[vertInd*3],
				Y: decoder.Vertices[vertInd*3+1],
			},
			Color: color,
		})
		unique[key] = index
	}

	m.Indices = append(m.Indices, index)
	return nil
}

func faceColor(decoder *obj.Decoder, material string) vkngmath.Vec3[float32] {
	mat, ok := decoder.Materials[material]
	if !ok || mat == nil {
		return white
	}

	return vkngmath.Vec3[float32]{X: mat.Diffuse.R, Y: mat.Diffuse.G, Z: mat.Diffuse.B}
}
