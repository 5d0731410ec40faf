package render

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

const spirvMagic = 0x07230203

// loadShaderCode reads the named SPIR-V files from dir concurrently and
// returns their words in argument order.
func loadShaderCode(dir string, names ...string) ([][]uint32, error) {
	code := make([][]uint32, len(names))

	var group errgroup.Group
	for i, name := range names {
		i, name := i, name
		group.Go(func() error {
			path := filepath.Join(dir, name)
			b, err := os.ReadFile(path)
			if err != nil {
				return errors.WithHint(errors.Wrap(err, "read shader"), "run go generate ./shaders to compile the GLSL sources")
			}

			code[i], err = bytesToBytecode(b)
			return errors.Wrapf(err, "shader %s", path)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Newf("bad spir-v magic 0x%08x", byteCode[0])
	}

	return byteCode, nil
}
