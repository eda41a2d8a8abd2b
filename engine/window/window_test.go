package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigure_defaults(t *testing.T) {
	w := configure()
	assert.Equal(t, "Instancing test", w.title)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
	assert.True(t, w.resizable)
	assert.Equal(t, ClientAPIOpenGL, w.ClientAPI())
}

func TestConfigure_options(t *testing.T) {
	w := configure(
		WithTitle("bench"),
		WithWidth(1024),
		WithHeight(768),
		WithResizable(false),
		WithClientAPI(ClientAPINone),
	)
	assert.Equal(t, "bench", w.title)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
	assert.False(t, w.resizable)
	assert.Equal(t, ClientAPINone, w.ClientAPI())
	assert.Equal(t, "none", w.ClientAPI().String())
}

func TestUninitializedWindow(t *testing.T) {
	w := configure()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.NotPanics(t, w.SwapBuffers)
	assert.NotPanics(t, w.RequestClose)
	assert.Error(t, w.Close())

	calls := 0
	w.SetUpdateCallback(func() bool { calls++; return true })
	w.ProcessMessages()
	assert.Zero(t, calls)
}

func TestNewWindow_rejectsInvalidSize(t *testing.T) {
	_, err := NewWindow(WithWidth(0))
	assert.Error(t, err)
}
