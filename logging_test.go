package dusteffect

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_LevelsAndPrefix(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("dust", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("started %s", "a")
	l.Errorf("failed %s", "b")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[dust] INFO: started a")
	assert.Contains(t, errOut.String(), "[dust] ERROR: failed b")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("visible")
	assert.Contains(t, out.String(), "[dust] DEBUG: visible")
}

func TestApp_LoggerFallsBackToNop(t *testing.T) {
	var app *App
	assert.NotNil(t, app.Logger())

	app = NewAppBuilder().Build()
	assert.False(t, app.Logger().DebugEnabled())

	app = NewAppBuilder().UseModule(LoggingModule{Debug: true}).Build()
	assert.True(t, app.Logger().DebugEnabled())
}

// recordingLogger keeps every line for assertions.
type recordingLogger struct {
	nopLogger
	infos  []string
	errors []string
}

func (r *recordingLogger) Infof(format string, args ...any) {
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
