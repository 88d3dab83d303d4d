// Package translator adapts goshadertranslator to shader.Translator so the
// GLSL ES 3.00 sources shipped with the renderers run on desktop core
// profiles as well as GLES contexts.
package translator

import (
	"context"
	"fmt"

	"github.com/richinsley/glgrid/graphics"
	"github.com/richinsley/glgrid/shader"
	gst "github.com/richinsley/goshadertranslator"
)

// Translator wraps a goshadertranslator instance and a fixed output format.
type Translator struct {
	st     *gst.ShaderTranslator
	isGLES bool
}

// New starts a translator producing GLSL 4.10 for desktop contexts or ESSL
// for GLES contexts.
func New(ctx context.Context, isGLES bool) (*Translator, error) {
	st, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start shader translator: %w", err)
	}
	return &Translator{st: st, isGLES: isGLES}, nil
}

// Translate implements shader.Translator.
func (t *Translator) Translate(stage graphics.Stage, source string) (*shader.Translation, error) {
	outputFormat := gst.OutputFormatGLSL410
	if t.isGLES {
		outputFormat = gst.OutputFormatESSL
	}
	res, err := t.st.TranslateShader(source, stageName(stage), gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(res.Variables))
	for name, v := range res.Variables {
		names[name] = v.MappedName
	}
	return &shader.Translation{Code: res.Code, Names: names}, nil
}

func stageName(stage graphics.Stage) string {
	if stage == graphics.FragmentStage {
		return "fragment"
	}
	return "vertex"
}
