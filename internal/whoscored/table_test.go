package whoscored

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// teamPage mimics the archive layout: the stats grid lives in the sixth div
// of the fourth top-level div.
const teamPage = `<html><body>
<div id="one"></div><div id="two"></div><div id="three"></div>
<div id="layout">
  <div></div><div></div><div></div><div></div><div></div>
  <div id="statistics">
    <table id="top-player-stats-summary-grid">
      <thead><tr>
        <th>Player</th><th>CM</th><th>KG</th><th>Apps</th><th>Mins</th><th>Goals</th><th>Assists</th>
        <th>Yel</th><th>Red</th><th>SpG</th><th>PS%</th><th>AerialsWon</th><th>MotM</th><th>Rating</th>
      </tr></thead>
      <tbody>
        <tr>
          <td class="pn"><span class="rank">10</span> <a class="player-link"><span>Lionel Messi</span></a>
            <span class="player-meta-data">34</span><span class="player-meta-data">, Forward</span></td>
          <td>170</td><td>72</td><td>33</td><td>2880</td><td>25</td><td>21</td>
          <td>4</td><td>-</td><td>5.2</td><td>81.3</td><td>0.4</td><td>19</td><td> 8.86 </td>
        </tr>
        <tr class="separator"><th colspan="14"></th></tr>
        <tr>
          <td>9 Luis Suárez 33, Forward</td>
          <td>182</td><td>86</td><td>28</td><td>2000</td><td>16</td><td>8</td>
          <td>6</td><td>0</td><td>2.9</td><td>75.1</td><td>1.1</td><td>5</td><td>7.61</td>
        </tr>
      </tbody>
    </table>
    <script>var x = 1;</script>
  </div>
</div>
</body></html>`

func TestExtractTable_DefaultSelector(t *testing.T) {
	raw, err := ExtractTable(strings.NewReader(teamPage), "")
	require.NoError(t, err)

	require.Len(t, raw.Headers, 15)
	assert.Equal(t, "Player", raw.Headers[0])
	assert.Equal(t, "Rating", raw.Headers[13])
	assert.Equal(t, "", raw.Headers[14])

	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "10 Lionel Messi 34, Forward", raw.Rows[0][0])
	assert.Equal(t, "8.86", raw.Rows[0][13])
	assert.Equal(t, "-", raw.Rows[0][8])
	assert.Equal(t, "9 Luis Suárez 33, Forward", raw.Rows[1][0])
}

func TestExtractTable_NotFound(t *testing.T) {
	_, err := ExtractTable(strings.NewReader(`<html><body><div>maintenance</div></body></html>`), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestExtractTable_CustomSelector(t *testing.T) {
	raw, err := ExtractTable(strings.NewReader(teamPage), "#top-player-stats-summary-grid")
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 2)
}

func TestExtractThenNormalize(t *testing.T) {
	raw, err := ExtractTable(strings.NewReader(teamPage), "")
	require.NoError(t, err)

	out, err := Normalize(raw, "Barcelona")
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "Lionel Messi", out.Records[0].Name)
	assert.Equal(t, 34, out.Records[0].Age)
	assert.Equal(t, "Forward", out.Records[0].Position)
	assert.Zero(t, out.Records[0].RedCards)
	assert.Equal(t, 7.61, out.Records[1].Rating)
}
