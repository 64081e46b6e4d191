package sii

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/rental-yield/internal/config"
)

const ufTable = `<html><body>
<table id="table_export">
  <thead><tr><th>Día</th><th>Ene</th><th>Feb</th><th>Mar</th></tr></thead>
  <tbody>
    <tr><th>1</th><td>38.419,17</td><td>38.543,08</td><td>38.647,29</td></tr>
    <tr><th>2</th><td>38.421,45</td><td>38.547,12</td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestParseChileanNumber(t *testing.T) {
	v, ok := parseChileanNumber(" 38.419,17 ")
	require.True(t, ok)
	assert.InDelta(t, 38419.17, v, 1e-9)

	for _, raw := range []string{"", "abc", "0", "-1,0"} {
		_, ok := parseChileanNumber(raw)
		assert.False(t, ok, raw)
	}
}

func TestExtractValue(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ufTable))
	require.NoError(t, err)

	v, err := extractValue(doc, 2, 2)
	require.NoError(t, err)
	assert.InDelta(t, 38547.12, v, 1e-9)

	_, err = extractValue(doc, 2, 3)
	assert.Error(t, err, "empty cell")

	_, err = extractValue(doc, 31, 1)
	assert.Error(t, err, "missing row")
}

func TestFetchUF(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(ufTable))
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewScraper(&config.Config{SIIURL: srv.URL + "/uf/uf%d.htm"}, log)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	rate, err := s.FetchUF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/uf/uf2025.htm", gotPath)
	assert.InDelta(t, 38647.29, rate.Value, 1e-9)
	assert.Equal(t, "sii", rate.Source)
	assert.Equal(t, "01-03-2025", rate.Date)
}
