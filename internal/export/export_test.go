package export

import (
	"bytes"
	"testing"

	"github.com/lehigh-university-libraries/regionocr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var rows = []models.RegionText{
	{Page: 1, BBox: []float64{10, 20, 50, 60}, Text: "first page"},
	{Page: 3, BBox: []float64{10, 20, 50, 60}, Text: ""},
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, YAML, FormatFor("out.yaml"))
	assert.Equal(t, YAML, FormatFor("OUT.YML"))
	assert.Equal(t, Parquet, FormatFor("/tmp/out.parquet"))
	assert.Equal(t, Text, FormatFor("out.txt"))
	assert.Equal(t, Text, FormatFor(""))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Text, rows))
	assert.Equal(t, "page 1: first page\npage 3: \n", buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, YAML, rows))

	var got []models.RegionText
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, rows, got)
	assert.Contains(t, buf.String(), "text: first page")
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Parquet, rows))

	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[1].Page)
	assert.Equal(t, "first page", got[0].Text)
	assert.Equal(t, []float64{10, 20, 50, 60}, got[0].BBox)
}
