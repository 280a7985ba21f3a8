package vtest_test

import (
	"net/http"
	"testing"

	"github.com/go-via/contactform/vtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageGreeter(t *testing.T) {
	t.Parallel()

	page := vtest.VisitWith(vtest.NewGreeterApp(), "/")
	defer page.Close()

	page.AssertText(t, "Greeter")
	assert.Equal(t, []string{"Nobody yet"}, page.TestIDTexts("greeting"))

	require.NoError(t, page.Fill("name", "Alice"))
	assert.Equal(t, "Alice", page.Value("name"))
	page.AssertText(t, "Echo: Alice")

	require.NoError(t, page.Blur("name"))
	assert.Equal(t, []string{"Hello, Alice!"}, page.TestIDTexts("greeting"))

	require.NoError(t, page.Click("Clear"))
	assert.Equal(t, "", page.Value("name"))
	assert.Equal(t, []string{"Nobody yet"}, page.TestIDTexts("greeting"))
	page.AssertNoText(t, "Hello, Alice!")
}

func TestPageSubmitButtonSubmitsForm(t *testing.T) {
	t.Parallel()

	page := vtest.VisitWith(vtest.NewGreeterApp(), "/")
	defer page.Close()

	assert.Equal(t, []string{"Greeted 0 times"}, page.TestIDTexts("greeted"))
	require.NoError(t, page.Fill("name", "Carol"))
	require.NoError(t, page.Click("Greet"))
	assert.Equal(t, []string{"Hello, Carol!"}, page.TestIDTexts("greeting"))
	assert.Equal(t, []string{"Greeted 1 times"}, page.TestIDTexts("greeted"))
}

func TestPageFillLabel(t *testing.T) {
	t.Parallel()

	page := vtest.VisitWith(vtest.NewGreeterApp(), "/")
	defer page.Close()

	require.NoError(t, page.FillLabel("your name", "Bob"))
	require.NoError(t, page.BlurLabel("^your"))
	page.AssertText(t, "Hello, Bob!")
}

func TestPageErrors(t *testing.T) {
	t.Parallel()

	vtest.SetHandler(vtest.NewGreeterApp())
	page := vtest.Visit("/")
	defer page.Close()

	assert.Error(t, page.Click("NonExistentButton"))
	assert.Error(t, page.Fill("missing", "x"))
	assert.Error(t, page.Blur("missing"))
	assert.Error(t, page.FillLabel("no such label", "x"))
	assert.Empty(t, page.TestIDTexts("missing"))
}

func TestTesterGet(t *testing.T) {
	t.Parallel()

	vt := vtest.New(vtest.NewGreeterApp())
	resp := vt.Get("/")
	resp.AssertStatus(t, http.StatusOK)
	resp.AssertContains(t, "<!doctype html>")
	assert.NotEmpty(t, resp.ContextID())

	vt.Get("/favicon.ico").AssertStatus(t, http.StatusNotFound)
}
