package whoscored

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "real-madrid", Slug("Real Madrid"))
	assert.Equal(t, "barcelona", Slug("  Barcelona "))
	assert.Equal(t, "atletico-madrid", Slug("Atletico  Madrid!"))
	assert.Equal(t, "real-madrid_stats", TeamFileName("Real Madrid"))

	assert.Equal(t, "atlético-madrid", Slug("Atlético Madrid"))
	assert.Equal(t, "cádiz_stats", TeamFileName("Cádiz"))
	assert.Equal(t, "алавес", Slug("Алавес"))
	assert.NotEqual(t, Slug("Алавес"), Slug("Жирона"))
	assert.Equal(t, "", Slug(" !? "))
}

func TestParseTeams_NonLatinNamesAreDistinct(t *testing.T) {
	teams, err := ParseTeams("Алавес=https://example.com/teams/60;Жирона=https://example.com/teams/2783")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "жирона_stats", TeamFileName(teams[1].Name))
}

func TestParseTeams(t *testing.T) {
	teams, err := ParseTeams("Sevilla=https://example.com/teams/67?stageId=1,2; Valencia=https://example.com/teams/55\n")
	require.NoError(t, err)
	assert.Equal(t, []TeamSource{
		{Name: "Sevilla", URL: "https://example.com/teams/67?stageId=1,2"},
		{Name: "Valencia", URL: "https://example.com/teams/55"},
	}, teams)

	_, err = ParseTeams("Sevilla")
	assert.Error(t, err)
	_, err = ParseTeams("A=x;a=y")
	assert.Error(t, err)
	_, err = ParseTeams(" ; ")
	assert.Error(t, err)
}

func TestApplyTeamSubset(t *testing.T) {
	all := []TeamSource{{Name: "Barcelona"}, {Name: "Real Madrid"}, {Name: "Sevilla"}}

	assert.Equal(t, all, ApplyTeamSubset(all, ""))

	sub := ApplyTeamSubset(all, "sevilla, real-madrid")
	require.Len(t, sub, 2)
	assert.Equal(t, "Real Madrid", sub[0].Name)
	assert.Equal(t, "Sevilla", sub[1].Name)

	assert.Empty(t, ApplyTeamSubset(all, "Valencia"))
}
