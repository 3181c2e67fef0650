package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

// CreateShader compiles one stage into a separable program and applies the
// uniform block and sampler bindings GLSL 4.1 cannot declare inline.
func (d *Device) CreateShader(desc gpu.ShaderDesc) (*gpu.Shader, error) {
	sh, err := compileShader(desc.Source, stageType(desc.Stage), desc.Name)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(sh)

	program := gl.CreateProgram()
	gl.ProgramParameteri(program, gl.PROGRAM_SEPARABLE, gl.TRUE)
	gl.AttachShader(program, sh)
	gl.LinkProgram(program)
	gl.DetachShader(program, sh)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		msg := programLog(program)
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("link %s shader %q: %s", desc.Stage, desc.Name, msg)
	}

	for name, slot := range desc.UniformBlocks {
		idx := gl.GetUniformBlockIndex(program, gl.Str(name+"\x00"))
		if idx == gl.INVALID_INDEX {
			// Blocks the compiler optimized away have no index.
			d.log.Debug("inactive uniform block", zap.String("shader", desc.Name), zap.String("block", name))
			continue
		}
		gl.UniformBlockBinding(program, idx, slot)
	}
	for name, unit := range desc.Samplers {
		loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
		if loc < 0 {
			continue
		}
		gl.ProgramUniform1i(program, loc, int32(unit))
	}

	d.log.Debug("shader created",
		zap.String("name", desc.Name),
		zap.Stringer("stage", desc.Stage),
		zap.Uint32("program", program))
	return &gpu.Shader{ID: gpu.Handle(program), Stage: desc.Stage, Name: desc.Name}, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader %q: %s", name, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func programLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}
