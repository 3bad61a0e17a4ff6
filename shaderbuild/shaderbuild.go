// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shaderbuild turns a script's shader sections into SPIR-V by
// shelling out to the Vulkan SDK's command-line compilers, the same way a
// script source's SourceGLSL/SourceSPIRVText payloads are never compiled
// in-process.
package shaderbuild

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/vkrunner/core/os/shell"
	"github.com/google/vkrunner/pipelinekey"
	"github.com/google/vkrunner/script"
	"github.com/pkg/errors"
)

// stageExtension names the source file suffix for each pipelinekey.Stage;
// glslangValidator infers the shader stage from it.
var stageExtension = map[pipelinekey.Stage]string{
	pipelinekey.Vertex:         "vert",
	pipelinekey.TessControl:    "tesc",
	pipelinekey.TessEvaluation: "tese",
	pipelinekey.Geometry:       "geom",
	pipelinekey.Fragment:       "frag",
	pipelinekey.Compute_:       "comp",
}

// Builder compiles a script's shader sections into SPIR-V binaries,
// invoking external compilers found on PATH (or overridden for testing).
type Builder struct {
	// Glslang is the glslangValidator (or glslc-compatible) binary used to
	// turn SourceGLSL text into SPIR-V.
	Glslang string
	// SpirvAs assembles SourceSPIRVText into a binary module.
	SpirvAs string
	// SpirvDis disassembles a binary module back to text, used only when
	// a caller asks Disassemble to render diagnostics.
	SpirvDis string
}

// NewBuilder returns a Builder that looks up its tools by their
// conventional Vulkan SDK names on PATH.
func NewBuilder() *Builder {
	return &Builder{
		Glslang:  "glslangValidator",
		SpirvAs:  "spirv-as",
		SpirvDis: "spirv-dis",
	}
}

// Build compiles shader into a SPIR-V binary suitable for
// vk.Context.CreateShaderModule. Shaders already in SourceSPIRVBinary or
// SourcePassthrough form are returned unchanged.
func (b *Builder) Build(ctx context.Context, stage pipelinekey.Stage, shader script.Shader) ([]byte, error) {
	switch shader.Type {
	case script.SourceSPIRVBinary, script.SourcePassthrough:
		return shader.Binary, nil
	case script.SourceGLSL:
		return b.compileGLSL(ctx, stage, shader.Source)
	case script.SourceSPIRVText:
		return b.assembleSPIRVText(ctx, shader.Source)
	}
	return nil, errors.Errorf("shaderbuild: unknown shader source type %d", shader.Type)
}

func (b *Builder) compileGLSL(ctx context.Context, stage pipelinekey.Stage, source string) ([]byte, error) {
	ext, ok := stageExtension[stage]
	if !ok {
		return nil, errors.Errorf("shaderbuild: no glslangValidator stage suffix for stage %d", stage)
	}
	dir, err := ioutil.TempDir("", "vkrunner-shader")
	if err != nil {
		return nil, errors.Wrap(err, "shaderbuild: creating scratch directory")
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "shader."+ext)
	outPath := filepath.Join(dir, "shader.spv")
	if err := ioutil.WriteFile(srcPath, []byte(source), 0644); err != nil {
		return nil, errors.Wrap(err, "shaderbuild: writing source")
	}

	cmd := shell.Command(b.Glslang, "-V", "-o", outPath, srcPath)
	if out, err := cmd.Call(ctx); err != nil {
		return nil, errors.Wrapf(err, "shaderbuild: glslangValidator failed: %s", out)
	}
	return ioutil.ReadFile(outPath)
}

func (b *Builder) assembleSPIRVText(ctx context.Context, source string) ([]byte, error) {
	dir, err := ioutil.TempDir("", "vkrunner-shader")
	if err != nil {
		return nil, errors.Wrap(err, "shaderbuild: creating scratch directory")
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "shader.spvasm")
	outPath := filepath.Join(dir, "shader.spv")
	if err := ioutil.WriteFile(srcPath, []byte(source), 0644); err != nil {
		return nil, errors.Wrap(err, "shaderbuild: writing source")
	}

	cmd := shell.Command(b.SpirvAs, "-o", outPath, srcPath)
	if out, err := cmd.Call(ctx); err != nil {
		return nil, errors.Wrapf(err, "shaderbuild: spirv-as failed: %s", out)
	}
	return ioutil.ReadFile(outPath)
}

// Disassemble renders binary as SPIR-V text, used by the -d debug flag to
// show the module a GLSL or SPIR-V-text section actually produced.
func (b *Builder) Disassemble(ctx context.Context, binary []byte) (string, error) {
	dir, err := ioutil.TempDir("", "vkrunner-shader")
	if err != nil {
		return "", errors.Wrap(err, "shaderbuild: creating scratch directory")
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "shader.spv")
	if err := ioutil.WriteFile(inPath, binary, 0644); err != nil {
		return "", errors.Wrap(err, "shaderbuild: writing binary")
	}

	cmd := shell.Command(b.SpirvDis, inPath)
	out, err := cmd.Call(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "shaderbuild: spirv-dis failed: %s", out)
	}
	return out, nil
}
