package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipecast/pipecast/internal/console"
	"github.com/pipecast/pipecast/internal/resolver"
	"github.com/pipecast/pipecast/internal/stream"
)

func jsonVariants() *stream.Variants {
	src := resolver.NewHTTPSource(nil, "http://example.com/live")
	v := stream.NewVariants()
	v.Put("live", src)
	v.PutSynonym("best", src)
	return v
}

func TestPrintJSONListing(t *testing.T) {
	var buf bytes.Buffer
	con := console.New(&buf)

	require.Equal(t, 0, printJSON(con, jsonVariants(), nil))
	assert.JSONEq(t, `{"streams":["live"],"synonyms":{"best":"live"}}`, buf.String())
}

func TestPrintJSONChosenStream(t *testing.T) {
	var buf bytes.Buffer
	con := console.New(&buf)

	require.Equal(t, 0, printJSON(con, jsonVariants(), []string{"best"}))
	assert.JSONEq(t,
		`{"name":"live","transport":"http","url":"http://example.com/live"}`,
		buf.String())
}

func TestPrintJSONUnknownStream(t *testing.T) {
	var buf bytes.Buffer
	con := console.New(&buf)

	require.Equal(t, 1, printJSON(con, jsonVariants(), []string{"720p"}))
	assert.Contains(t, buf.String(), "could not be found")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"hls", "http"}, splitList(" hls, http ,"))
	assert.Nil(t, splitList(""))
}
