package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"newest":    CategoryNewest,
		"NEWEST":    CategoryNewest,
		" popular ": CategoryPopular,
		"top-rated": CategoryTopRated,
		"toprated":  CategoryTopRated,
		"TOP_RATED": CategoryTopRated,
		"upcoming":  CategoryUpcoming,
		"none":      CategoryNone,
	}
	for in, want := range cases {
		got, ok := ParseCategory(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "BOGUS", "featured", "ALL"} {
		_, ok := ParseCategory(in)
		assert.False(t, ok, "input %q should be rejected", in)
	}
}

func TestParseKind(t *testing.T) {
	got, ok := ParseKind("kdrama")
	require.True(t, ok)
	assert.Equal(t, KindKDrama, got)

	_, ok = ParseKind("TELENOVELA")
	assert.False(t, ok)
}

func TestSetEpisodeLinkReplacesSamePair(t *testing.T) {
	var c Content

	replaced := c.SetEpisodeLink("server1", EpisodeLink{ID: "a", EpisodeNumber: 1, URL: "https://a/1.m3u8"})
	assert.False(t, replaced)

	replaced = c.SetEpisodeLink("server1", EpisodeLink{ID: "b", EpisodeNumber: 1, URL: "https://a/1-v2.m3u8"})
	assert.True(t, replaced)

	require.Len(t, c.Servers, 1)
	require.Len(t, c.Servers[0].Episodes, 1)
	assert.Equal(t, "https://a/1-v2.m3u8", c.Servers[0].Episodes[0].URL)
	// entry identity survives a replacement
	assert.Equal(t, "a", c.Servers[0].Episodes[0].ID)
}

func TestSetEpisodeLinkKeepsEpisodesSorted(t *testing.T) {
	var c Content
	for _, n := range []int{5, 1, 3, 2, 4} {
		c.SetEpisodeLink("server2", EpisodeLink{EpisodeNumber: n, URL: "u"})
	}

	require.Len(t, c.Servers, 1)
	nums := make([]int, 0, 5)
	for _, ep := range c.Servers[0].Episodes {
		nums = append(nums, ep.EpisodeNumber)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, nums)
}

func TestRemoveEpisodeLink(t *testing.T) {
	var c Content
	c.SetEpisodeLink("server1", EpisodeLink{ID: "x", EpisodeNumber: 1, URL: "u"})
	c.SetEpisodeLink("server1", EpisodeLink{ID: "y", EpisodeNumber: 2, URL: "u"})

	assert.True(t, c.RemoveEpisodeLink("x"))
	assert.False(t, c.RemoveEpisodeLink("x"))
	require.Len(t, c.Servers, 1)
	assert.Equal(t, "y", c.Servers[0].Episodes[0].ID)

	// removing the last link prunes the group
	assert.True(t, c.RemoveEpisodeLink("y"))
	assert.Empty(t, c.Servers)
}

func TestDefaultServerPrefersServer1(t *testing.T) {
	var c Content
	assert.Nil(t, c.DefaultServer())

	c.SetEpisodeLink("server2", EpisodeLink{EpisodeNumber: 1, URL: "u2"})
	require.NotNil(t, c.DefaultServer())
	assert.Equal(t, "server2", c.DefaultServer().ServerName)

	c.SetEpisodeLink("server1", EpisodeLink{EpisodeNumber: 1, URL: "u1"})
	assert.Equal(t, "server1", c.DefaultServer().ServerName)
}

func TestEpisodeServersProjection(t *testing.T) {
	var c Content
	c.SetEpisodeLink("server1", EpisodeLink{EpisodeNumber: 1, URL: "u1", Quality: "1080p"})
	c.SetEpisodeLink("server2", EpisodeLink{EpisodeNumber: 1, URL: "u2"})
	c.SetEpisodeLink("server1", EpisodeLink{EpisodeNumber: 2, URL: "u3"})

	servers := c.EpisodeServers(1)
	require.Len(t, servers, 2)
	assert.Equal(t, EpisodeServer{Name: "server1", URL: "u1", Quality: "1080p"}, servers[0])
	assert.Equal(t, EpisodeServer{Name: "server2", URL: "u2"}, servers[1])

	assert.Empty(t, c.EpisodeServers(99))
}
