package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPopulated(t *testing.T, n int) *Memory {
	t.Helper()
	mem := NewMemory("userRoot", "uid", "objectClass")
	for i := 0; i < n; i++ {
		e := NewEntry(fmt.Sprintf("uid=user%03d,ou=people,dc=example,dc=com", i))
		e.SetAttribute("uid", fmt.Sprintf("user%03d", i))
		e.SetAttribute("objectClass", "top", "person")
		if i%2 == 0 {
			e.SetAttribute("mail", fmt.Sprintf("user%03d@example.com", i))
		}
		require.NoError(t, mem.Add(e))
	}
	return mem
}

func TestMemoryAdd(t *testing.T) {
	mem := newPopulated(t, 3)
	assert.Equal(t, 3, mem.Len())
	assert.Equal(t, "userRoot", mem.Name())

	dup := NewEntry("UID=user000,ou=people,dc=example,dc=com")
	assert.ErrorIs(t, mem.Add(dup), ErrEntryExists)
}

func TestMemorySearch(t *testing.T) {
	mem := newPopulated(t, 10)

	tests := []struct {
		name          string
		filter        Filter
		wantEstimate  int
		wantUnindexed bool
	}{
		{"all", Filter{}, 10, false},
		{"indexed equality", Filter{Attribute: "uid", Value: "USER004"}, 1, false},
		{"indexed miss", Filter{Attribute: "uid", Value: "nobody"}, 0, false},
		{"indexed presence", Filter{Attribute: "objectclass", Value: PresenceValue}, 10, false},
		{"unindexed presence", Filter{Attribute: "mail", Value: PresenceValue}, 5, true},
		{"unindexed equality", Filter{Attribute: "mail", Value: "user002@example.com"}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := mem.Search(tt.filter)
			require.NoError(t, err)
			defer mem.ReleaseResultSet(rs)

			assert.Equal(t, tt.wantEstimate, rs.Estimate())
			assert.Equal(t, tt.wantUnindexed, rs.Unindexed())
			assert.Equal(t, tt.filter, rs.Filter())
		})
	}
}

func TestMemoryNextPages(t *testing.T) {
	mem := newPopulated(t, 7)

	rs, err := mem.Search(Filter{})
	require.NoError(t, err)

	var dns []string
	for _, want := range []struct {
		size int
		more bool
	}{{3, true}, {3, true}, {1, false}} {
		page, more, err := mem.Next(rs, 3)
		require.NoError(t, err)
		assert.Len(t, page, want.size)
		assert.Equal(t, want.more, more)
		for _, e := range page {
			dns = append(dns, e.DN)
		}
	}

	assert.Len(t, dns, 7)
	assert.Equal(t, "uid=user000,ou=people,dc=example,dc=com", dns[0])
	assert.Equal(t, 7, rs.Returned())
	assert.Equal(t, 0, rs.Remaining())
}

func TestReleaseResultSet(t *testing.T) {
	mem := newPopulated(t, 4)

	rs1, err := mem.Search(Filter{})
	require.NoError(t, err)
	rs2, err := mem.Search(Filter{Attribute: "uid", Value: "user001"})
	require.NoError(t, err)
	assert.Equal(t, Stats{Open: 2}, mem.Stats())

	mem.ReleaseResultSet(rs1)
	assert.Equal(t, Stats{Open: 1, Released: 1}, mem.Stats())

	_, _, err = mem.Next(rs1, 1)
	assert.ErrorIs(t, err, ErrReleased)

	mem.ReleaseResultSet(rs1)
	assert.Equal(t, Stats{Open: 1, Released: 1, DoubleReleases: 1}, mem.Stats())

	// Foreign and untyped handles are ignored.
	other := NewMemory("other")
	other.ReleaseResultSet(rs2)
	mem.ReleaseResultSet("not a result set")
	mem.ReleaseResultSet(nil)
	assert.Equal(t, Stats{Open: 1, Released: 1, DoubleReleases: 1}, mem.Stats())

	_, _, err = other.Next(rs2, 1)
	assert.ErrorIs(t, err, ErrForeignResultSet)
}

func TestEntryMatches(t *testing.T) {
	e := NewEntry("cn=a")
	e.SetAttribute("CN", "Alice")

	assert.True(t, e.matches(Filter{}))
	assert.True(t, e.matches(Filter{Attribute: "cn", Value: "alice"}))
	assert.True(t, e.matches(Filter{Attribute: "cn", Value: PresenceValue}))
	assert.False(t, e.matches(Filter{Attribute: "sn", Value: PresenceValue}))
	assert.Equal(t, "Alice", e.GetFirstAttribute("cn"))
	assert.Equal(t, "", e.GetFirstAttribute("sn"))
	assert.Equal(t, "(cn=alice)", Filter{Attribute: "cn", Value: "alice"}.String())
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input   string
		want    Filter
		wantErr error
	}{
		{"", Filter{}, nil},
		{"(objectClass=*)", Filter{}, nil},
		{"(uid=alice)", Filter{Attribute: "uid", Value: "alice"}, nil},
		{"mail=*", Filter{Attribute: "mail", Value: PresenceValue}, nil},
		{" (cn=John Smith) ", Filter{Attribute: "cn", Value: "John Smith"}, nil},
		{"(uid=alice", Filter{}, ErrInvalidFilter},
		{"(=alice)", Filter{}, ErrInvalidFilter},
		{"(uid=)", Filter{}, ErrInvalidFilter},
		{"()", Filter{}, ErrInvalidFilter},
		{"(&(uid=a)(cn=b))", Filter{}, ErrUnsupportedFilter},
		{"(!(uid=a))", Filter{}, ErrUnsupportedFilter},
		{"(cn=Jo*)", Filter{}, ErrUnsupportedFilter},
		{"(uidNumber>=10)", Filter{}, ErrUnsupportedFilter},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFilter(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeed(t *testing.T) {
	mem := NewMemory("userRoot", "uid", "objectClass")
	require.NoError(t, Seed(mem, "dc=example,dc=com", 9))
	assert.Equal(t, 9, mem.Len())

	rs, err := mem.Search(Filter{Attribute: "objectClass", Value: "inetOrgPerson"})
	require.NoError(t, err)
	defer mem.ReleaseResultSet(rs)
	assert.Equal(t, 3, rs.Estimate())
	assert.False(t, rs.Unindexed())

	assert.ErrorIs(t, Seed(mem, "dc=example,dc=com", 1), ErrEntryExists)
}
